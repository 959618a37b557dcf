package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/alert"
	"github.com/mamaguard/mamaguard/internal/domain/conversation"
	"github.com/mamaguard/mamaguard/internal/domain/patient"
	"github.com/mamaguard/mamaguard/internal/domain/triage"
	"github.com/mamaguard/mamaguard/internal/platform/llm"
)

type patientStore struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

// clonePatient mirrors the real repo, which scans every read into a fresh
// struct; handing out the stored pointer would let later writes leak into
// snapshots callers already hold.
func clonePatient(p *patient.Patient) *patient.Patient {
	c := *p
	return &c
}

func newPatientStore() *patientStore {
	return &patientStore{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (s *patientStore) Create(_ context.Context, p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.patients[p.ID] = clonePatient(p)
	return nil
}

func (s *patientStore) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return clonePatient(p), nil
}

func (s *patientStore) GetByPhone(_ context.Context, phone string) (*patient.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.PhoneNumber == phone {
			return clonePatient(p), nil
		}
	}
	return nil, patient.ErrNotFound
}

func (s *patientStore) CreateIfAbsent(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	if existing, err := s.GetByPhone(ctx, p.PhoneNumber); err == nil {
		return existing, nil
	}
	return p, s.Create(ctx, p)
}

func (s *patientStore) Update(_ context.Context, p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = clonePatient(p)
	return nil
}

func (s *patientStore) SetRiskLevel(_ context.Context, id uuid.UUID, level triage.Urgency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return patient.ErrNotFound
	}
	p.RiskLevel = level
	return nil
}

func (s *patientStore) List(_ context.Context, _, _ int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (s *patientStore) only() *patient.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		return clonePatient(p)
	}
	return nil
}

type conversationStore struct {
	mu            sync.Mutex
	conversations []*conversation.Conversation
	messages      []*conversation.Message
	wamidErr      error
	insertErr     error
}

func newConversationStore() *conversationStore {
	return &conversationStore{}
}

func (s *conversationStore) CreateConversation(_ context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	s.conversations = append(s.conversations, c)
	return nil
}

func (s *conversationStore) LatestByPatient(_ context.Context, patientID uuid.UUID) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.conversations) - 1; i >= 0; i-- {
		if s.conversations[i].PatientID == patientID {
			return s.conversations[i], nil
		}
	}
	return nil, conversation.ErrNotFound
}

func (s *conversationStore) GetConversation(_ context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, conversation.ErrNotFound
}

func (s *conversationStore) InsertMessage(_ context.Context, m *conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	s.messages = append(s.messages, m)
	return nil
}

func (s *conversationStore) HasWamid(_ context.Context, wamid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wamidErr != nil {
		return false, s.wamidErr
	}
	for _, m := range s.messages {
		if m.Metadata[conversation.MetaWamid] == wamid {
			return true, nil
		}
	}
	return false, nil
}

func (s *conversationStore) RecentMessages(_ context.Context, conversationID uuid.UUID, n int) ([]*conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*conversation.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *conversationStore) ListMessages(_ context.Context, conversationID uuid.UUID, limit, offset int) ([]*conversation.Message, int, error) {
	return nil, 0, nil
}

func (s *conversationStore) byRole(role string) []*conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*conversation.Message
	for _, m := range s.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

type alertStore struct {
	mu     sync.Mutex
	alerts []*alert.Alert
}

func (s *alertStore) Create(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *alertStore) List(_ context.Context, _, _ int) ([]*alert.Alert, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts, len(s.alerts), nil
}

// fakeChannel records provider calls and fails on demand.
type fakeChannel struct {
	mu sync.Mutex

	sentTexts  []string
	sentTo     []string
	sentAudio  []string
	uploaded   [][]byte
	mediaURLs  map[string]string
	mediaBytes map[string][]byte

	sendTextErr  error
	sendAudioErr error
	uploadErr    error
	mediaURLErr  error
	downloadErr  error
	uploadID     string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		mediaURLs:  map[string]string{},
		mediaBytes: map[string][]byte{},
		uploadID:   "media-out-1",
	}
}

func (f *fakeChannel) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendTextErr != nil {
		return f.sendTextErr
	}
	f.sentTo = append(f.sentTo, to)
	f.sentTexts = append(f.sentTexts, body)
	return nil
}

func (f *fakeChannel) SendAudio(_ context.Context, to, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendAudioErr != nil {
		return f.sendAudioErr
	}
	f.sentAudio = append(f.sentAudio, mediaID)
	return nil
}

func (f *fakeChannel) UploadMedia(_ context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, audio)
	return f.uploadID, nil
}

func (f *fakeChannel) MediaURL(_ context.Context, mediaID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mediaURLErr != nil {
		return "", f.mediaURLErr
	}
	url, ok := f.mediaURLs[mediaID]
	if !ok {
		return "", errors.New("unknown media id")
	}
	return url, nil
}

func (f *fakeChannel) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.mediaBytes[url]
	if !ok {
		return nil, errors.New("unknown media url")
	}
	return data, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return f.audio, f.err
}

type fakeReplier struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llm.PatientContext
	msgs  []string
}

func (f *fakeReplier) Reply(_ context.Context, message string, pc llm.PatientContext) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pc)
	f.msgs = append(f.msgs, message)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
