package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type noopTxManager struct{}

type noopSession struct{}

func (noopSession) Tx() pgx.Tx               { return nil }
func (noopSession) Context() context.Context { return context.Background() }

func (noopTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}

func (noopTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, noopSession{})
}

type recordKey struct {
	userID  uuid.UUID
	mediaID uuid.UUID
}

// memRecords 模拟 play_records 表：读取返回副本，Save 之后才可见。
type memRecords struct {
	mu      sync.Mutex
	records map[recordKey]*po.PlayRecord
	saveErr error
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[recordKey]*po.PlayRecord)}
}

func (m *memRecords) LockOrCreate(_ context.Context, _ txmanager.Session, userID, mediaID uuid.UUID, now time.Time) (*po.PlayRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{userID, mediaID}
	if rec, ok := m.records[key]; ok {
		return rec.Clone(), false, nil
	}
	rec := po.NewPlayRecord(userID, mediaID, now)
	m.records[key] = rec
	return rec.Clone(), true, nil
}

func (m *memRecords) Get(_ context.Context, _ txmanager.Session, userID, mediaID uuid.UUID) (*po.PlayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey{userID, mediaID}]
	if !ok {
		return nil, repositories.ErrPlayRecordNotFound
	}
	return rec.Clone(), nil
}

func (m *memRecords) Save(_ context.Context, _ txmanager.Session, rec *po.PlayRecord) (*po.PlayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.records[recordKey{rec.UserID, rec.MediaID}] = rec.Clone()
	return rec.Clone(), nil
}

func (m *memRecords) byMedia(userID, mediaID uuid.UUID) *po.PlayRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey{userID, mediaID}]
	if !ok {
		return nil
	}
	return rec.Clone()
}

type memEvents struct {
	mu     sync.Mutex
	events []*po.PlayEvent
}

func (m *memEvents) Append(_ context.Context, _ txmanager.Session, evt *po.PlayEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *evt
	m.events = append(m.events, &cp)
	return nil
}

func (m *memEvents) Latest(_ context.Context, _ txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error) {
	return m.latestMatching(recordID, func(po.EventType) bool { return true })
}

func (m *memEvents) LatestBoundary(_ context.Context, _ txmanager.Session, recordID uuid.UUID) (*po.PlayEvent, error) {
	return m.latestMatching(recordID, po.EventType.IsSegmentBoundary)
}

func (m *memEvents) latestMatching(recordID uuid.UUID, match func(po.EventType) bool) (*po.PlayEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if evt.RecordID == recordID && match(evt.EventType) {
			cp := *evt
			return &cp, nil
		}
	}
	return nil, repositories.ErrPlayEventNotFound
}

func (m *memEvents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memEvents) last() *po.PlayEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	cp := *m.events[len(m.events)-1]
	return &cp
}

// memCatalog 模拟目录投影，媒体进度从 memRecords 读取。
type memCatalog struct {
	media   map[uuid.UUID]*po.Media
	lessons map[uuid.UUID]*po.Lesson
	order   []uuid.UUID
	records *memRecords
}

func newMemCatalog(records *memRecords) *memCatalog {
	return &memCatalog{
		media:   make(map[uuid.UUID]*po.Media),
		lessons: make(map[uuid.UUID]*po.Lesson),
		records: records,
	}
}

func (c *memCatalog) addLesson(courseID uuid.UUID, sortOrder int32, active bool) uuid.UUID {
	lesson := &po.Lesson{LessonID: uuid.New(), CourseID: courseID, SortOrder: sortOrder, IsActive: active}
	c.lessons[lesson.LessonID] = lesson
	return lesson.LessonID
}

func (c *memCatalog) addMedia(lessonID *uuid.UUID, mediaType po.MediaType, duration *float64) uuid.UUID {
	media := &po.Media{MediaID: uuid.New(), LessonID: lessonID, MediaType: mediaType, DurationSeconds: duration}
	c.media[media.MediaID] = media
	c.order = append(c.order, media.MediaID)
	return media.MediaID
}

func (c *memCatalog) GetMedia(_ context.Context, _ txmanager.Session, mediaID uuid.UUID) (*po.Media, error) {
	media, ok := c.media[mediaID]
	if !ok {
		return nil, repositories.ErrMediaNotFound
	}
	cp := *media
	return &cp, nil
}

func (c *memCatalog) GetLesson(_ context.Context, _ txmanager.Session, lessonID uuid.UUID) (*po.Lesson, error) {
	lesson, ok := c.lessons[lessonID]
	if !ok {
		return nil, repositories.ErrLessonNotFound
	}
	cp := *lesson
	return &cp, nil
}

func (c *memCatalog) ListActiveLessons(_ context.Context, _ txmanager.Session, courseID uuid.UUID) ([]*po.Lesson, error) {
	var out []*po.Lesson
	for _, lesson := range c.lessons {
		if lesson.CourseID == courseID && lesson.IsActive {
			cp := *lesson
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (c *memCatalog) ListLessonMediaProgress(_ context.Context, _ txmanager.Session, userID, lessonID uuid.UUID) ([]po.LessonMediaProgress, error) {
	return c.mediaProgress(userID, func(l uuid.UUID) bool { return l == lessonID }), nil
}

func (c *memCatalog) ListCourseMediaProgress(_ context.Context, _ txmanager.Session, userID, courseID uuid.UUID) ([]po.LessonMediaProgress, error) {
	return c.mediaProgress(userID, func(l uuid.UUID) bool {
		lesson, ok := c.lessons[l]
		return ok && lesson.CourseID == courseID && lesson.IsActive
	}), nil
}

func (c *memCatalog) mediaProgress(userID uuid.UUID, include func(uuid.UUID) bool) []po.LessonMediaProgress {
	var out []po.LessonMediaProgress
	for _, id := range c.order {
		media := c.media[id]
		if media.LessonID == nil || !include(*media.LessonID) || !media.MediaType.Playable() {
			continue
		}
		item := po.LessonMediaProgress{
			LessonID:        *media.LessonID,
			MediaID:         media.MediaID,
			MediaType:       media.MediaType,
			DurationSeconds: media.DurationSeconds,
		}
		if rec := c.records.byMedia(userID, media.MediaID); rec != nil {
			item.EffectiveSeconds = rec.EffectiveDuration
			item.Completed = rec.Completed
			item.HasRecord = true
		}
		out = append(out, item)
	}
	return out
}

type progressKey struct {
	userID   uuid.UUID
	lessonID uuid.UUID
}

type memProgress struct {
	mu   sync.Mutex
	rows map[progressKey]*po.LessonProgress
}

func newMemProgress() *memProgress {
	return &memProgress{rows: make(map[progressKey]*po.LessonProgress)}
}

func (m *memProgress) GetForUpdate(ctx context.Context, sess txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error) {
	return m.Get(ctx, sess, userID, lessonID)
}

func (m *memProgress) Get(_ context.Context, _ txmanager.Session, userID, lessonID uuid.UUID) (*po.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[progressKey{userID, lessonID}]
	if !ok {
		return nil, repositories.ErrLessonProgressNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memProgress) Upsert(_ context.Context, _ txmanager.Session, progress *po.LessonProgress) (*po.LessonProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey{progress.UserID, progress.LessonID}
	cp := *progress
	if prev, ok := m.rows[key]; ok && prev.Completed {
		cp.Completed = true
		if cp.CompletedAt == nil {
			cp.CompletedAt = prev.CompletedAt
		}
	}
	m.rows[key] = &cp
	out := cp
	return &out, nil
}

func (m *memProgress) ListCompletedLessonIDs(_ context.Context, _ txmanager.Session, userID, courseID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[uuid.UUID]struct{})
	for key, row := range m.rows {
		if key.userID == userID && row.CourseID == courseID && row.Completed {
			set[key.lessonID] = struct{}{}
		}
	}
	return set, nil
}

type memOutbox struct {
	mu       sync.Mutex
	messages []repositories.OutboxMessage
}

func (m *memOutbox) Enqueue(_ context.Context, _ txmanager.Session, msg repositories.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memOutbox) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg.EventType)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
