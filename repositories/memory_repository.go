package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"manuscript-workflow/models"
)

// MemoryDB is an in-process store shared by the memory repositories. A single
// mutex makes every repository call one atomic unit, mirroring the row locks
// taken by the gorm repositories.
type MemoryDB struct {
	mu sync.Mutex

	manuscripts   map[uint]*models.Manuscript
	issues        map[[2]int]*models.Issue
	users         map[uint]*models.User
	history       []models.StatusHistory
	notifications []models.Notification

	nextManuscriptID   uint
	nextAssignmentID   uint
	nextIssueID        uint
	nextHistoryID      uint
	nextNotificationID uint

	now func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		manuscripts: make(map[uint]*models.Manuscript),
		issues:      make(map[[2]int]*models.Issue),
		users:       make(map[uint]*models.User),
		now:         time.Now,
	}
}

// PutUser seeds a user record; users are owned by the identity service.
func (db *MemoryDB) PutUser(u models.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now()
	}
	db.users[u.ID] = &u
}

// PutManuscript stores a manuscript as given, assigning ids where missing.
func (db *MemoryDB) PutManuscript(m *models.Manuscript) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m.ID == 0 {
		db.nextManuscriptID++
		m.ID = db.nextManuscriptID
	} else if m.ID > db.nextManuscriptID {
		db.nextManuscriptID = m.ID
	}
	db.assignIDs(m)
	db.manuscripts[m.ID] = m.Clone()
}

func (db *MemoryDB) assignIDs(m *models.Manuscript) {
	for i := range m.Reviewers {
		m.Reviewers[i].ManuscriptID = m.ID
		if m.Reviewers[i].ID == 0 {
			db.nextAssignmentID++
			m.Reviewers[i].ID = db.nextAssignmentID
		}
	}
}

func (db *MemoryDB) appendHistory(manuscriptID uint, h *models.StatusHistory) {
	if h == nil {
		return
	}
	db.nextHistoryID++
	h.ID = db.nextHistoryID
	h.ManuscriptID = manuscriptID
	db.history = append(db.history, *h)
}

type memoryManuscriptRepository struct {
	db *MemoryDB
}

func NewMemoryManuscriptRepository(db *MemoryDB) ManuscriptRepository {
	return &memoryManuscriptRepository{db: db}
}

func (r *memoryManuscriptRepository) Create(_ context.Context, m *models.Manuscript, codePrefix string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	r.db.nextManuscriptID++
	m.ID = r.db.nextManuscriptID
	m.CreatedAt, m.UpdatedAt = now, now
	m.Code = FormatManuscriptCode(codePrefix, now.Year(), m.ID)
	r.db.assignIDs(m)
	r.db.manuscripts[m.ID] = m.Clone()
	return nil
}

func (r *memoryManuscriptRepository) GetByID(_ context.Context, id uint) (*models.Manuscript, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.manuscripts[id]
	if !ok {
		return nil, models.NotFound("manuscript")
	}
	return m.Clone(), nil
}

func (r *memoryManuscriptRepository) GetByCode(_ context.Context, code string) (*models.Manuscript, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.manuscripts {
		if m.Code == code {
			return m.Clone(), nil
		}
	}
	return nil, models.NotFound("manuscript")
}

func (r *memoryManuscriptRepository) List(_ context.Context, params models.ManuscriptListParams) ([]models.Manuscript, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var matched []models.Manuscript
	for _, m := range r.db.manuscripts {
		if params.Status != "" && string(m.Status) != params.Status {
			continue
		}
		if params.SubmitterID > 0 && m.SubmitterID != params.SubmitterID {
			continue
		}
		if params.ReviewerID > 0 {
			if a, _ := m.Assignment(params.ReviewerID); a == nil {
				continue
			}
		}
		matched = append(matched, *m.Clone())
	}

	asc := params.SortOrder == "asc"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch params.SortBy {
		case "title":
			less = a.Title < b.Title
		case "status":
			less = a.Status < b.Status
		case "updated_at":
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			less = a.ID < b.ID
		}
		if asc {
			return less
		}
		return !less
	})

	total := int64(len(matched))
	page, limit := normalizePage(params.Page, params.Limit)
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Manuscript{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryManuscriptRepository) Update(_ context.Context, id uint, fn Mutation) (*models.Manuscript, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.manuscripts[id]
	if !ok {
		return nil, models.NotFound("manuscript")
	}
	m := stored.Clone()
	history, err := fn(m)
	if err != nil {
		return nil, err
	}
	r.commit(m, history)
	return m.Clone(), nil
}

func (r *memoryManuscriptRepository) UpdateAssignment(_ context.Context, manuscriptID, reviewerID uint, fn AssignmentMutation) (*models.ReviewerAssignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.manuscripts[manuscriptID]
	if !ok {
		return nil, models.NotFound("reviewer assignment")
	}
	a, idx := stored.Assignment(reviewerID)
	if a == nil {
		return nil, models.NotFound("reviewer assignment")
	}
	updated := *a
	if err := fn(&updated); err != nil {
		return nil, err
	}
	stored.Reviewers[idx] = updated
	return &updated, nil
}

func (r *memoryManuscriptRepository) ListAssignmentsByReviewer(_ context.Context, reviewerID uint) ([]models.ReviewerAssignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.ReviewerAssignment
	for _, m := range r.db.manuscripts {
		if a, _ := m.Assignment(reviewerID); a != nil {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryManuscriptRepository) History(_ context.Context, id uint) ([]models.StatusHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.StatusHistory
	for _, h := range r.db.history {
		if h.ManuscriptID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memoryManuscriptRepository) MaxArticleNumber(_ context.Context, volume, number int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.maxArticleNumber(volume, number), nil
}

func (r *memoryManuscriptRepository) maxArticleNumber(volume, number int) int {
	highest := 0
	for _, m := range r.db.manuscripts {
		if inIssue(m, volume, number) && *m.ArticleNumber > highest {
			highest = *m.ArticleNumber
		}
	}
	return highest
}

func (r *memoryManuscriptRepository) PublishInto(_ context.Context, id uint, volume, number, articleNumber int, fn Mutation) (*models.Manuscript, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	issue, ok := r.db.issues[[2]int{volume, number}]
	if !ok {
		return nil, models.NotFound("issue")
	}
	stored, ok := r.db.manuscripts[id]
	if !ok {
		return nil, models.NotFound("manuscript")
	}
	if stored.Placed() {
		return nil, models.InvalidTransition("manuscript %s is already placed in %s as article %d", stored.Code, stored.Issue, *stored.ArticleNumber)
	}

	if articleNumber == 0 {
		articleNumber = r.maxArticleNumber(volume, number) + 1
	} else {
		for _, other := range r.db.manuscripts {
			if inIssue(other, volume, number) && *other.ArticleNumber == articleNumber {
				return nil, duplicateArticleNumber(issue, articleNumber)
			}
		}
	}

	m := stored.Clone()
	m.Place(issue, articleNumber)
	history, err := fn(m)
	if err != nil {
		return nil, err
	}
	r.commit(m, history)
	return m.Clone(), nil
}

func (r *memoryManuscriptRepository) commit(m *models.Manuscript, history *models.StatusHistory) {
	m.UpdatedAt = r.db.now()
	r.db.assignIDs(m)
	r.db.manuscripts[m.ID] = m.Clone()
	r.db.appendHistory(m.ID, history)
}

func inIssue(m *models.Manuscript, volume, number int) bool {
	return m.IssueVolume != nil && m.IssueNumber != nil && m.ArticleNumber != nil &&
		*m.IssueVolume == volume && *m.IssueNumber == number
}

type memoryIssueRepository struct {
	db *MemoryDB
}

func NewMemoryIssueRepository(db *MemoryDB) IssueRepository {
	return &memoryIssueRepository{db: db}
}

func (r *memoryIssueRepository) Ensure(_ context.Context, issue *models.Issue) (*models.Issue, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := [2]int{issue.Volume, issue.Number}
	if existing, ok := r.db.issues[key]; ok {
		out := *existing
		return &out, false, nil
	}
	now := r.db.now()
	r.db.nextIssueID++
	issue.ID = r.db.nextIssueID
	issue.CreatedAt, issue.UpdatedAt = now, now
	stored := *issue
	r.db.issues[key] = &stored
	return issue, true, nil
}

func (r *memoryIssueRepository) Get(_ context.Context, volume, number int) (*models.Issue, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	issue, ok := r.db.issues[[2]int{volume, number}]
	if !ok {
		return nil, models.NotFound("issue")
	}
	out := *issue
	return &out, nil
}

func (r *memoryIssueRepository) List(_ context.Context) ([]models.Issue, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]models.Issue, 0, len(r.db.issues))
	for _, issue := range r.db.issues {
		out = append(out, *issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Number > out[j].Number
	})
	return out, nil
}

type memoryUserRepository struct {
	db *MemoryDB
}

func NewMemoryUserRepository(db *MemoryDB) UserRepository {
	return &memoryUserRepository{db: db}
}

func (r *memoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, models.NotFound("user")
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepository) ListByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memoryUserRepository) ListByRoles(_ context.Context, roles []models.UserRole) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.User
	for _, u := range r.db.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, *u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryNotificationRepository struct {
	db *MemoryDB
}

func NewMemoryNotificationRepository(db *MemoryDB) NotificationRepository {
	return &memoryNotificationRepository{db: db}
}

func (r *memoryNotificationRepository) Create(_ context.Context, n *models.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.nextNotificationID++
	n.ID = r.db.nextNotificationID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.db.now()
	}
	r.db.notifications = append(r.db.notifications, *n)
	return nil
}

func (r *memoryNotificationRepository) ListFor(_ context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	_, limit = normalizePage(1, limit)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.Notification
	for i := len(r.db.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.db.notifications[i]
		if n.Targets(actor) {
			out = append(out, n)
		}
	}
	return out, nil
}
