package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/metrics"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
	"github.com/sirupsen/logrus"
)

// DurationMinutes переводит вариант длительности из формы в минуты.
var DurationMinutes = map[string]int{
	"2-3h":     180,
	"half-day": 240,
	"full-day": 480,
	"2-3days":  4320,
	"week":     10080,
}

const (
	SlotUploading = "uploading"
	SlotUploaded  = "uploaded"

	previewWidth  = 320
	previewHeight = 240
	uploadTimeout = time.Minute
)

// TourFields содержит текстовые поля формы создания тура.
type TourFields struct {
	Title            string  `json:"title" validate:"required"`
	City             string  `json:"city" validate:"required"`
	Price            float64 `json:"price" validate:"gt=0"`
	Duration         string  `json:"duration" validate:"required,oneof=2-3h half-day full-day 2-3days week"`
	ShortDescription string  `json:"short_description" validate:"required"`
	FullDescription  string  `json:"full_description" validate:"required"`
	InstantBooking   bool    `json:"instant_booking"`
}

// ImageSlot представляет изображение в форме. Пока идёт загрузка, в Preview лежит локальная миниатюра.
type ImageSlot struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Preview  string `json:"preview,omitempty"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

// UploadFile представляет файл, выбранный гидом.
type UploadFile struct {
	Name string
	Data []byte
}

// DraftView представляет состояние формы для отдачи клиенту.
type DraftView struct {
	Fields    TourFields      `json:"fields"`
	Images    []ImageSlot     `json:"images"`
	Uploading bool            `json:"uploading"`
	Submit    action.Snapshot `json:"submit"`
	Notices   []Notice        `json:"notices,omitempty"`
}

type uploadJob struct {
	slotID string
	name   string
	mime   string
	data   []byte
}

type draft struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	fields  TourFields
	images  []*ImageSlot
	notices []Notice
	queue   []uploadJob
	running bool
	wg      sync.WaitGroup
	submit  action.Action
}

// TourFormService хранит черновики туров гидов и загружает изображения по одному.
type TourFormService struct {
	tours     TourStore
	uploader  ImageUploader
	maxImages int
	maxBytes  int64
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	mu     sync.Mutex
	drafts map[int]*draft
}

// NewTourFormService создает новый сервис формы тура.
func NewTourFormService(tours TourStore, uploader ImageUploader, maxImages int, maxBytes int64, m *metrics.Metrics, logger *logrus.Logger) *TourFormService {
	return &TourFormService{
		tours:     tours,
		uploader:  uploader,
		maxImages: maxImages,
		maxBytes:  maxBytes,
		validate:  validator.New(),
		metrics:   m,
		logger:    logger,
		drafts:    make(map[int]*draft),
	}
}

func (s *TourFormService) draft(guideID int) *draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[guideID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		d = &draft{ctx: ctx, cancel: cancel}
		s.drafts[guideID] = d
	}
	return d
}

// View возвращает черновик гида. Накопленные уведомления отдаются один раз.
func (s *TourFormService) View(guideID int) DraftView {
	d := s.draft(guideID)
	d.mu.Lock()
	defer d.mu.Unlock()
	v := DraftView{
		Fields:  d.fields,
		Images:  make([]ImageSlot, 0, len(d.images)),
		Submit:  d.submit.Snapshot(),
		Notices: d.notices,
	}
	for _, img := range d.images {
		v.Images = append(v.Images, *img)
		if img.Status == SlotUploading {
			v.Uploading = true
		}
	}
	d.notices = nil
	return v
}

// UpdateFields заменяет текстовые поля черновика.
func (s *TourFormService) UpdateFields(guideID int, f TourFields) DraftView {
	d := s.draft(guideID)
	d.mu.Lock()
	d.fields = f
	d.mu.Unlock()
	return s.View(guideID)
}

// AddFiles принимает выбранные файлы. Каждый подходящий файл сразу занимает слот с миниатюрой
// и ставится в очередь загрузки. Файлы сверх лимита отбрасываются с одним уведомлением.
func (s *TourFormService) AddFiles(guideID int, files []UploadFile) []Notice {
	d := s.draft(guideID)
	d.mu.Lock()
	defer d.mu.Unlock()

	var notices []Notice
	free := s.maxImages - len(d.images)
	for i, f := range files {
		if free <= 0 {
			notices = append(notices, failure(fmt.Sprintf(
				"Достигнут лимит: можно загрузить не более %d изображений. Пропущено файлов: %d", s.maxImages, len(files)-i)))
			s.count("rejected", len(files)-i)
			break
		}
		mime, problem := s.check(f)
		if problem != "" {
			notices = append(notices, failure(problem))
			s.count("rejected", 1)
			continue
		}

		slot := &ImageSlot{
			ID:       uuid.NewString(),
			Filename: f.Name,
			Preview:  preview(f.Data, mime),
			Status:   SlotUploading,
		}
		d.images = append(d.images, slot)
		d.queue = append(d.queue, uploadJob{slotID: slot.ID, name: f.Name, mime: mime, data: f.Data})
		d.wg.Add(1)
		free--
	}
	d.notices = append(d.notices, notices...)

	if !d.running && len(d.queue) > 0 {
		d.running = true
		go s.worker(d)
	}
	return notices
}

// check возвращает MIME-тип файла либо текст уведомления, если файл не подходит.
func (s *TourFormService) check(f UploadFile) (mime, problem string) {
	if int64(len(f.Data)) > s.maxBytes {
		return "", fmt.Sprintf("Файл %s больше %d МБ", f.Name, s.maxBytes>>20)
	}
	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Sprintf("Файл %s не является изображением", f.Name)
	}
	return mt.String(), ""
}

// preview строит миниатюру для показа до окончания загрузки. Форматы, которые не удаётся
// декодировать, показываются как есть.
func preview(data []byte, mime string) string {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return dataURL(mime, data)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, previewWidth, previewHeight, imaging.Lanczos), imaging.JPEG); err != nil {
		return dataURL(mime, data)
	}
	return dataURL("image/jpeg", buf.Bytes())
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// worker загружает изображения черновика строго по одному.
func (s *TourFormService) worker(d *draft) {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 || d.ctx.Err() != nil {
			for range d.queue {
				d.wg.Done()
			}
			d.queue = nil
			d.running = false
			d.mu.Unlock()
			return
		}
		job := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		s.upload(d, job)
		d.wg.Done()
	}
}

func (s *TourFormService) upload(d *draft, job uploadJob) {
	ctx, cancel := context.WithTimeout(d.ctx, uploadTimeout)
	defer cancel()

	resp, err := s.uploader.UploadImage(ctx, job.name, job.mime, job.data)

	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.slotIndex(job.slotID)
	if err != nil {
		s.count("failure", 1)
		s.logger.WithError(err).WithField("filename", job.name).Warn("image upload failed")
		if idx >= 0 {
			d.images = append(d.images[:idx], d.images[idx+1:]...)
		}
		d.notices = append(d.notices, failure(fmt.Sprintf("Не удалось загрузить %s: %v", job.name, err)))
		return
	}
	s.count("success", 1)
	if idx < 0 {
		// слот удалили, пока шла загрузка
		return
	}
	d.images[idx].URL = resp.URL
	d.images[idx].Preview = ""
	d.images[idx].Status = SlotUploaded
}

func (s *TourFormService) count(outcome string, n int) {
	if s.metrics != nil {
		s.metrics.Uploads.WithLabelValues(outcome).Add(float64(n))
	}
}

func (d *draft) slotIndex(id string) int {
	for i, img := range d.images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// Wait ждёт окончания всех загрузок черновика.
func (s *TourFormService) Wait(guideID int) {
	s.draft(guideID).wg.Wait()
}

// Move переставляет изображение с позиции from на позицию to. Первое изображение становится обложкой.
func (s *TourFormService) Move(guideID, from, to int) error {
	d := s.draft(guideID)
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.images)
	if from < 0 || from >= n || to < 0 || to >= n {
		return &ValidationError{Fields: []string{"images"}, Message: "неверная позиция изображения"}
	}
	img := d.images[from]
	d.images = append(d.images[:from], d.images[from+1:]...)
	d.images = append(d.images[:to], append([]*ImageSlot{img}, d.images[to:]...)...)
	return nil
}

// Remove убирает изображение из формы.
func (s *TourFormService) Remove(guideID, index int) error {
	d := s.draft(guideID)
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.images) {
		return &ValidationError{Fields: []string{"images"}, Message: "неверная позиция изображения"}
	}
	d.images = append(d.images[:index], d.images[index+1:]...)
	return nil
}

// Validate возвращает ошибку со списком незаполненных полей.
// Изображения, которые ещё загружаются, не учитываются.
func (s *TourFormService) Validate(f TourFields, uploaded int) error {
	var missing []string
	if err := s.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			missing = append(missing, jsonName(fe.Field()))
		}
	}
	if uploaded == 0 {
		missing = append(missing, "images")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

var fieldNames = map[string]string{
	"Title":            "title",
	"City":             "city",
	"Price":            "price",
	"Duration":         "duration",
	"ShortDescription": "short_description",
	"FullDescription":  "full_description",
}

func jsonName(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	return strings.ToLower(field)
}

// SubmitResult представляет итог отправки тура на модерацию.
type SubmitResult struct {
	TourID int    `json:"tour_id"`
	Notice Notice `json:"notice"`
}

// Submit отправляет тур на модерацию. Обложкой становится первое загруженное изображение.
// После успешной отправки черновик очищается.
func (s *TourFormService) Submit(ctx context.Context, guideID int) (*SubmitResult, error) {
	d := s.draft(guideID)

	d.mu.Lock()
	fields := d.fields
	var urls []string
	for _, img := range d.images {
		if img.Status == SlotUploaded {
			urls = append(urls, img.URL)
		}
	}
	d.mu.Unlock()

	if err := s.Validate(fields, len(urls)); err != nil {
		return nil, err
	}
	if !d.submit.Start() {
		return nil, action.ErrInFlight
	}

	resp, err := s.tours.Create(ctx, model.CreateTourRequest{
		Title:            strings.TrimSpace(fields.Title),
		City:             fields.City,
		Price:            fields.Price,
		Duration:         DurationMinutes[fields.Duration],
		ShortDescription: fields.ShortDescription,
		FullDescription:  fields.FullDescription,
		InstantBooking:   fields.InstantBooking,
		ImageURL:         urls[0],
		Images:           urls,
	})
	d.submit.Finish(err)
	if err != nil {
		return nil, err
	}

	s.Discard(guideID)
	msg := resp.Message
	if msg == "" {
		msg = "Тур отправлен на модерацию"
	}
	return &SubmitResult{TourID: resp.TourID, Notice: info("Тур создан!", msg)}, nil
}

// Discard удаляет черновик гида и прерывает незавершённые загрузки.
func (s *TourFormService) Discard(guideID int) {
	s.mu.Lock()
	d, ok := s.drafts[guideID]
	delete(s.drafts, guideID)
	s.mu.Unlock()
	if ok {
		d.cancel()
	}
}

// Close прерывает загрузки во всех черновиках и ждёт остановки воркеров.
func (s *TourFormService) Close() {
	s.mu.Lock()
	drafts := s.drafts
	s.drafts = make(map[int]*draft)
	s.mu.Unlock()
	for _, d := range drafts {
		d.cancel()
		d.wg.Wait()
	}
}
