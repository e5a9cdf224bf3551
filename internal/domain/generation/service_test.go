package generation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratoshot/pratoshot-api/internal/domain/credits"
	"github.com/pratoshot/pratoshot-api/internal/domain/template"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	images []GeneratedImage
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*Job)}
}

func (f *fakeJobRepo) CreateJob(_ context.Context, job *Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobRepo) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) ListJobs(_ context.Context, userID uuid.UUID, limit int) ([]Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Job
	for _, job := range f.jobs {
		if job.UserID == userID && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) UpdateStatus(_ context.Context, id uuid.UUID, status JobStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	job.Status = status
	job.ErrorMessage.Valid = errMsg != ""
	job.ErrorMessage.String = errMsg
	if status == StatusCompleted {
		job.CompletedAt.Valid = true
		job.CompletedAt.Time = time.Now()
	}
	return nil
}

func (f *fakeJobRepo) InsertImages(_ context.Context, images []GeneratedImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
		images[i].CreatedAt = time.Now()
	}
	f.images = append(f.images, images...)
	return nil
}

func (f *fakeJobRepo) ListImages(_ context.Context, jobID uuid.UUID) ([]GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []GeneratedImage
	for _, img := range f.images {
		if img.JobID == jobID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ReapStale(_ context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, job := range f.jobs {
		if job.Status == StatusProcessing && job.UpdatedAt.Before(olderThan) {
			job.Status = StatusFailed
			ids = append(ids, job.ID)
		}
	}
	return ids, nil
}

type fakeTemplateRepo struct {
	templates map[uuid.UUID]*template.PhotoTemplate
}

func (f *fakeTemplateRepo) ListActive(_ context.Context) ([]template.PhotoTemplate, error) {
	return nil, nil
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*template.PhotoTemplate, error) {
	return f.templates[id], nil
}

func (f *fakeTemplateRepo) Upsert(_ context.Context, _ *template.PhotoTemplate) error {
	return nil
}

type fakeDebiter struct {
	mu      sync.Mutex
	balance int
	debits  []int
}

func (f *fakeDebiter) DebitForGeneration(_ context.Context, _ uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balance < quantity {
		return credits.ErrInsufficientCredits
	}
	f.balance -= quantity
	f.debits = append(f.debits, quantity)
	return nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	return nil
}

func (f *fakeStorage) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeStorage) GetURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

// fakeGenerator fails on configurable call numbers and tracks the peak
// number of concurrent calls.
type fakeGenerator struct {
	mu         sync.Mutex
	output     []byte
	calls      int
	failOn     map[int]bool
	inflight   int
	maxSeen    int
	callDelay  time.Duration
	lastPrompt string
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, _ []byte, _ string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.inflight++
	if f.inflight > f.maxSeen {
		f.maxSeen = f.inflight
	}
	f.lastPrompt = prompt
	fail := f.failOn[call]
	f.mu.Unlock()

	if f.callDelay > 0 {
		select {
		case <-time.After(f.callDelay):
		case <-ctx.Done():
			f.done()
			return nil, ctx.Err()
		}
	}
	f.done()

	if fail {
		return nil, errors.New("model returned no image")
	}
	return f.output, nil
}

func (f *fakeGenerator) done() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []JobEvent
}

func (f *fakeNotifier) Notify(_ uuid.UUID, event JobEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type testEnv struct {
	repo      *fakeJobRepo
	templates *fakeTemplateRepo
	debiter   *fakeDebiter
	originals *fakeStorage
	generated *fakeStorage
	generator *fakeGenerator
	notifier  *fakeNotifier
	service   *Service
	userID    uuid.UUID
	tmplID    uuid.UUID
}

func newTestEnv(t *testing.T, balance int) *testEnv {
	tmplID := uuid.New()
	env := &testEnv{
		repo: newFakeJobRepo(),
		templates: &fakeTemplateRepo{templates: map[uuid.UUID]*template.PhotoTemplate{
			tmplID: {ID: tmplID, Slug: "stories-vibrante", AspectRatio: "9:16", Prompt: "dark moody style", IsActive: true},
		}},
		debiter:   &fakeDebiter{balance: balance},
		originals: newFakeStorage(),
		generated: newFakeStorage(),
		generator: &fakeGenerator{output: pngBytes(t, 64, 48), failOn: map[int]bool{}},
		notifier:  &fakeNotifier{},
		userID:    uuid.New(),
		tmplID:    tmplID,
	}
	env.service = NewService(env.repo, env.templates, env.debiter,
		env.originals, env.generated, env.generator, env.notifier, nil, 2)
	return env
}

func (e *testEnv) input(t *testing.T, quantity int) CreateJobInput {
	return CreateJobInput{
		TemplateID:   e.tmplID,
		Quantity:     quantity,
		BusinessType: "hamburgueria",
		FileName:     "dish.png",
		FileData:     pngBytes(t, 100, 100),
		ContentType:  "image/png",
	}
}

func TestCreateJobCompletes(t *testing.T) {
	env := newTestEnv(t, 5)

	job, images, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", job.Status)
	}
	if job.CreditsUsed != 2 {
		t.Errorf("creditsUsed = %d, want 2", job.CreditsUsed)
	}
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	if env.debiter.balance != 3 {
		t.Errorf("balance = %d, want 3", env.debiter.balance)
	}
	if len(env.debiter.debits) != 1 || env.debiter.debits[0] != 2 {
		t.Errorf("debits = %v, want one debit of 2", env.debiter.debits)
	}
	for i, img := range images {
		if img.Position != i {
			t.Errorf("image %d position = %d", i, img.Position)
		}
		if img.Width != 64 || img.Height != 48 {
			t.Errorf("image %d dimensions = %dx%d, want 64x48", i, img.Width, img.Height)
		}
	}
	if env.originals.count() != 1 {
		t.Errorf("originals stored = %d, want 1", env.originals.count())
	}
	if env.generated.count() != 2 {
		t.Errorf("variants stored = %d, want 2", env.generated.count())
	}
	if !strings.HasSuffix(images[0].StorageKey, "/image-1.png") {
		t.Errorf("first variant key = %q, want image-1.png suffix", images[0].StorageKey)
	}
	if !strings.HasSuffix(images[1].StorageKey, "/image-2.png") {
		t.Errorf("second variant key = %q, want image-2.png suffix", images[1].StorageKey)
	}
}

func TestCreateJobInsufficientCredits(t *testing.T) {
	env := newTestEnv(t, 1)

	_, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 4))
	if !errors.Is(err, credits.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if env.debiter.balance != 1 {
		t.Errorf("balance = %d, want untouched 1", env.debiter.balance)
	}
	if len(env.repo.jobs) != 0 {
		t.Error("job row created despite rejection")
	}
	if env.originals.count() != 0 {
		t.Error("original uploaded despite rejection")
	}
}

func TestCreateJobFailureKeepsDebit(t *testing.T) {
	env := newTestEnv(t, 5)
	env.generator.failOn[2] = true

	_, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 3))
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if env.debiter.balance != 2 {
		t.Errorf("balance = %d, want 2 (3 spent, no refund)", env.debiter.balance)
	}

	var job *Job
	for _, j := range env.repo.jobs {
		job = j
	}
	if job == nil {
		t.Fatal("job row missing")
	}
	if job.Status != StatusFailed {
		t.Errorf("status = %s, want FAILED", job.Status)
	}
	if !job.ErrorMessage.Valid || job.ErrorMessage.String == "" {
		t.Error("error message not recorded")
	}
	if len(env.repo.images) != 0 {
		t.Errorf("images persisted on failed attempt: %d", len(env.repo.images))
	}
}

func TestCreateJobInactiveTemplate(t *testing.T) {
	env := newTestEnv(t, 5)
	env.templates.templates[env.tmplID].IsActive = false

	_, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 2))
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	if env.debiter.balance != 5 {
		t.Errorf("balance = %d, debit occurred before template check", env.debiter.balance)
	}
}

func TestCreateJobAspectRatioFromTemplate(t *testing.T) {
	env := newTestEnv(t, 5)

	job, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	if job.AspectRatio != "9:16" {
		t.Errorf("aspectRatio = %q, want the template's 9:16", job.AspectRatio)
	}
	if !strings.Contains(env.generator.lastPrompt, "9:16") {
		t.Error("prompt missing the template's aspect ratio")
	}

	// An unrecognized stored ratio falls back to square.
	env.templates.templates[env.tmplID].AspectRatio = "banner"
	job, _, err = env.service.CreateJob(context.Background(), env.userID, env.input(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	if job.AspectRatio != "1:1" {
		t.Errorf("aspectRatio = %q, want 1:1 fallback", job.AspectRatio)
	}
}

func TestCreateJobUnknownTemplate(t *testing.T) {
	env := newTestEnv(t, 5)

	in := env.input(t, 2)
	in.TemplateID = uuid.New()
	_, _, err := env.service.CreateJob(context.Background(), env.userID, in)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	if env.debiter.balance != 5 {
		t.Errorf("balance = %d, debit occurred for unknown template", env.debiter.balance)
	}
	if len(env.repo.jobs) != 0 || env.originals.count() != 0 {
		t.Error("side effects despite unknown template")
	}
}

func TestCreateJobQuantityBounds(t *testing.T) {
	env := newTestEnv(t, 50)

	for _, q := range []int{0, -1, 5, 100} {
		if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, q)); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %d: err = %v, want ErrInvalidQuantity", q, err)
		}
	}
	if env.debiter.balance != 50 {
		t.Errorf("balance changed on rejected quantities: %d", env.debiter.balance)
	}
}

func TestCreateJobRejectsBadFiles(t *testing.T) {
	env := newTestEnv(t, 5)

	in := env.input(t, 1)
	in.FileName = "notes.txt"
	if _, _, err := env.service.CreateJob(context.Background(), env.userID, in); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("txt file: err = %v, want ErrInvalidFileType", err)
	}

	in = env.input(t, 1)
	in.ContentType = "application/pdf"
	if _, _, err := env.service.CreateJob(context.Background(), env.userID, in); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("pdf mime: err = %v, want ErrInvalidFileType", err)
	}

	in = env.input(t, 1)
	in.FileData = make([]byte, 11<<20)
	if _, _, err := env.service.CreateJob(context.Background(), env.userID, in); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized file: err = %v, want ErrFileTooLarge", err)
	}
}

func TestCreateJobPromptComposition(t *testing.T) {
	env := newTestEnv(t, 5)

	in := env.input(t, 1)
	in.PlatformTarget = "instagram"
	in.AdditionalNotes = "mais brilho"
	if _, _, err := env.service.CreateJob(context.Background(), env.userID, in); err != nil {
		t.Fatal(err)
	}

	prompt := env.generator.lastPrompt
	for _, want := range []string{
		"dark moody style",
		"hamburgueria",
		"instagram",
		"9:16",
		"mais brilho",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateAllBoundsInflight(t *testing.T) {
	env := newTestEnv(t, 10)
	env.generator.callDelay = 20 * time.Millisecond

	if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 4)); err != nil {
		t.Fatal(err)
	}
	if env.generator.maxSeen > 2 {
		t.Errorf("max concurrent calls = %d, want <= 2", env.generator.maxSeen)
	}
	if env.generator.calls != 4 {
		t.Errorf("calls = %d, want 4", env.generator.calls)
	}
}

func TestRetryIsFreeAndAppendOnly(t *testing.T) {
	env := newTestEnv(t, 5)
	env.generator.failOn[1] = true
	env.generator.failOn[2] = true

	_, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 2))
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("setup: err = %v", err)
	}

	var jobID uuid.UUID
	for id := range env.repo.jobs {
		jobID = id
	}
	balanceBefore := env.debiter.balance
	debitsBefore := len(env.debiter.debits)

	job, images, err := env.service.RetryJob(context.Background(), env.userID, jobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", job.Status)
	}
	if len(images) != 2 {
		t.Errorf("retry images = %d, want 2", len(images))
	}
	for _, img := range images {
		if !img.IsRetry {
			t.Error("retry image not flagged as retry")
		}
		if !strings.Contains(img.StorageKey, "retry-") {
			t.Errorf("retry key %q missing retry prefix", img.StorageKey)
		}
	}
	if env.debiter.balance != balanceBefore {
		t.Errorf("balance changed on retry: %d -> %d", balanceBefore, env.debiter.balance)
	}
	if len(env.debiter.debits) != debitsBefore {
		t.Error("retry inserted a debit")
	}
}

func TestRetryAppendsAfterSuccess(t *testing.T) {
	env := newTestEnv(t, 5)

	_, first, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 2))
	if err != nil {
		t.Fatal(err)
	}

	var jobID uuid.UUID
	for id := range env.repo.jobs {
		jobID = id
	}

	_, second, err := env.service.RetryJob(context.Background(), env.userID, jobID)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 {
		t.Fatalf("retry images = %d, want 2", len(second))
	}

	all, _ := env.repo.ListImages(context.Background(), jobID)
	if len(all) != len(first)+len(second) {
		t.Errorf("total images = %d, want %d (prior outputs retained)", len(all), len(first)+len(second))
	}
}

func TestRetryMissingTemplateFails(t *testing.T) {
	env := newTestEnv(t, 5)

	if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 1)); err != nil {
		t.Fatal(err)
	}
	var jobID uuid.UUID
	for id := range env.repo.jobs {
		jobID = id
	}
	delete(env.templates.templates, env.tmplID)

	_, _, err := env.service.RetryJob(context.Background(), env.userID, jobID)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	job, _ := env.repo.GetJob(context.Background(), jobID)
	if job.Status != StatusCompleted {
		t.Errorf("status = %s, retry with a missing template touched the job", job.Status)
	}
}

func TestRetryOwnershipAndExistence(t *testing.T) {
	env := newTestEnv(t, 5)

	if _, _, err := env.service.RetryJob(context.Background(), env.userID, uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("missing job: err = %v, want ErrJobNotFound", err)
	}

	if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 1)); err != nil {
		t.Fatal(err)
	}
	var jobID uuid.UUID
	for id := range env.repo.jobs {
		jobID = id
	}
	if _, _, err := env.service.RetryJob(context.Background(), uuid.New(), jobID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign job: err = %v, want ErrNotOwner", err)
	}
}

func TestGetJobOwnership(t *testing.T) {
	env := newTestEnv(t, 5)

	if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 1)); err != nil {
		t.Fatal(err)
	}
	var jobID uuid.UUID
	for id := range env.repo.jobs {
		jobID = id
	}

	if _, _, err := env.service.GetJob(context.Background(), uuid.New(), jobID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
	if _, images, err := env.service.GetJob(context.Background(), env.userID, jobID); err != nil || len(images) != 1 {
		t.Errorf("owner get: err = %v, images = %d", err, len(images))
	}
}

func TestNotifierReceivesTransitions(t *testing.T) {
	env := newTestEnv(t, 5)

	if _, _, err := env.service.CreateJob(context.Background(), env.userID, env.input(t, 1)); err != nil {
		t.Fatal(err)
	}

	env.notifier.mu.Lock()
	defer env.notifier.mu.Unlock()
	if len(env.notifier.events) < 2 {
		t.Fatalf("events = %d, want processing + completed", len(env.notifier.events))
	}
	if env.notifier.events[0].Status != string(StatusProcessing) {
		t.Errorf("first event = %s", env.notifier.events[0].Status)
	}
	last := env.notifier.events[len(env.notifier.events)-1]
	if last.Status != string(StatusCompleted) || last.ImagesReady != 1 {
		t.Errorf("last event = %+v", last)
	}
}

