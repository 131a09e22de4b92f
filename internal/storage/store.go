package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"talent-pipeline/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config 描述数据库连接方式，driver 支持 sqlite 与 mysql。
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Store 封装数据库访问，负责候选人、需求单、流水线与通知的读写。
type Store struct {
	db *gorm.DB
}

// CandidateQuery 提供候选人列表的过滤条件。
type CandidateQuery struct {
	Limit  int
	Offset int
	Search string
	Status model.CandidateStatus
	JobID  string
}

// NotificationQuery 提供通知列表的过滤条件。
type NotificationQuery struct {
	RecruiterID string
	Limit       int
	Offset      int
	UnreadOnly  bool
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "pipeline.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(path)
	case "mysql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("mysql driver requires dsn")
		}
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.Candidate{}, &model.Pipeline{}, &model.WorkOrder{}, &model.Employee{}, &model.Notification{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateCandidate 新增候选人流水线记录。
func (s *Store) CreateCandidate(ctx context.Context, cand *model.Candidate) error {
	if err := s.db.WithContext(ctx).Create(cand).Error; err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// GetCandidate 根据 ID 获取候选人记录。
func (s *Store) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	var cand model.Candidate
	if err := s.db.WithContext(ctx).First(&cand, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &cand, nil
}

// ListCandidates 返回按更新时间倒序的候选人列表。
func (s *Store) ListCandidates(ctx context.Context, q CandidateQuery) ([]model.Candidate, error) {
	var cands []model.Candidate
	if q.Offset < 0 {
		q.Offset = 0
	}

	query := applyCandidateFilters(s.db.WithContext(ctx).Model(&model.Candidate{}), q).Order("updated_at DESC")
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Find(&cands).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return cands, nil
}

// CountCandidates 返回满足过滤条件的候选人数量。
func (s *Store) CountCandidates(ctx context.Context, q CandidateQuery) (int64, error) {
	var total int64
	query := applyCandidateFilters(s.db.WithContext(ctx).Model(&model.Candidate{}), q)
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return total, nil
}

// UpdateCandidateStatus 更新候选人粗粒度状态。
// actionKey 非空且与上次变更的键相同时视为重复提交，返回当前记录不做修改。
func (s *Store) UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus, actionKey string) (*model.Candidate, error) {
	cand, err := s.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if actionKey != "" && cand.LastActionKey == actionKey {
		return cand, nil
	}

	values := map[string]any{
		"status":          status,
		"last_action_key": actionKey,
	}
	tx := s.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", id).Updates(values)
	if tx.Error != nil {
		return nil, fmt.Errorf("update candidate status: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("update candidate status: id %s: %w", id, sql.ErrNoRows)
	}
	return s.GetCandidate(ctx, id)
}

// SaveInterviewDetail 写入面试安排：同 ID 存在则整体覆盖，否则追加。
func (s *Store) SaveInterviewDetail(ctx context.Context, candidateID string, detail model.InterviewDetail) (*model.Candidate, error) {
	cand, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range cand.InterviewDetails {
		if cand.InterviewDetails[i].ID == detail.ID {
			cand.InterviewDetails[i] = detail
			replaced = true
			break
		}
	}
	if !replaced {
		cand.InterviewDetails = append(cand.InterviewDetails, detail)
	}

	tx := s.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", candidateID).
		Update("interview_details", cand.InterviewDetails)
	if tx.Error != nil {
		return nil, fmt.Errorf("save interview detail: %w", tx.Error)
	}
	return s.GetCandidate(ctx, candidateID)
}

// UpdateInterviewStatus 更新单条面试的状态。
func (s *Store) UpdateInterviewStatus(ctx context.Context, candidateID, interviewID string, status model.InterviewStatus) (*model.Candidate, error) {
	cand, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cand.InterviewDetails {
		if cand.InterviewDetails[i].ID == interviewID {
			cand.InterviewDetails[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("update interview status: interview %s: %w", interviewID, sql.ErrNoRows)
	}

	tx := s.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", candidateID).
		Update("interview_details", cand.InterviewDetails)
	if tx.Error != nil {
		return nil, fmt.Errorf("update interview status: %w", tx.Error)
	}
	return s.GetCandidate(ctx, candidateID)
}

// CreatePipeline 新增流水线定义。
func (s *Store) CreatePipeline(ctx context.Context, p *model.Pipeline) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	return nil
}

// GetPipeline 根据 ID 获取流水线定义。
func (s *Store) GetPipeline(ctx context.Context, id string) (*model.Pipeline, error) {
	var p model.Pipeline
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return &p, nil
}

// CreateWorkOrder 新增需求单。
func (s *Store) CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	if err := s.db.WithContext(ctx).Create(wo).Error; err != nil {
		return fmt.Errorf("create work order: %w", err)
	}
	return nil
}

// GetWorkOrder 根据 ID 获取需求单。
func (s *Store) GetWorkOrder(ctx context.Context, id string) (*model.WorkOrder, error) {
	var wo model.WorkOrder
	if err := s.db.WithContext(ctx).First(&wo, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return &wo, nil
}

// ListWorkOrders 返回全部需求单，按创建时间升序。
func (s *Store) ListWorkOrders(ctx context.Context) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	return orders, nil
}

// AddConvertedEmployee 将需求单的已转正人数加一，返回更新后的需求单。
func (s *Store) AddConvertedEmployee(ctx context.Context, workOrderID string) (*model.WorkOrder, error) {
	tx := s.db.WithContext(ctx).Model(&model.WorkOrder{}).Where("id = ?", workOrderID).
		Update("converted_employees", gorm.Expr("converted_employees + 1"))
	if tx.Error != nil {
		return nil, fmt.Errorf("add converted employee: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("add converted employee: id %s: %w", workOrderID, sql.ErrNoRows)
	}
	return s.GetWorkOrder(ctx, workOrderID)
}

// CreateEmployee 写入员工档案。
func (s *Store) CreateEmployee(ctx context.Context, emp *model.Employee) error {
	if err := s.db.WithContext(ctx).Create(emp).Error; err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// CreateNotification 新增通知。
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotifications 返回指定招聘官的通知，按创建时间倒序。
func (s *Store) ListNotifications(ctx context.Context, q NotificationQuery) ([]model.Notification, error) {
	var notes []model.Notification
	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recruiter_id = ?", q.RecruiterID).
		Order("created_at DESC")
	if q.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

// MarkNotificationRead 将单条通知标记为已读。
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", id).Update("read", true)
	if tx.Error != nil {
		return fmt.Errorf("mark notification read: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("mark notification read: id %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// DeleteNotification 删除单条通知。
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Notification{})
	if tx.Error != nil {
		return fmt.Errorf("delete notification: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("delete notification: id %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ClearNotifications 删除指定招聘官的全部通知，返回删除条数。
func (s *Store) ClearNotifications(ctx context.Context, recruiterID string) (int64, error) {
	tx := s.db.WithContext(ctx).Where("recruiter_id = ?", recruiterID).Delete(&model.Notification{})
	if tx.Error != nil {
		return 0, fmt.Errorf("clear notifications: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

func applyCandidateFilters(db *gorm.DB, q CandidateQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.JobID != "" {
		db = db.Where("work_order_id = ?", q.JobID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + search + "%"
		db = db.Where("user_full_name LIKE ? OR user_email LIKE ? OR work_order_title LIKE ?", pattern, pattern, pattern)
	}
	return db
}
