package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-backoffice/cache"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Events published after a successful commit.
const (
	EventAssignmentsSaved   = "modifier_assignments_saved"
	EventModifierGroup      = "modifier_group_updated"
	EventCategoryModifiers  = "category_modifiers_updated"
	EventMenuItemUpdated    = "menu_item_updated"
	EventMenuCategoryUpdate = "menu_category_updated"
)

// Publisher fans back-office change events out to connected dashboards.
type Publisher interface {
	Publish(event string, data interface{})
}

// Recorder receives operational counters.
type Recorder interface {
	ObserveAssignmentSave(result string)
	ObserveProjectionCache(result string)
}

type GroupOverride struct {
	Code          string
	IsRequired    *bool
	IsMultiselect *bool
	MinSelection  *int
	MaxSelection  *int
}

// AssignmentInput is a menu item's submitted modifier configuration.
type AssignmentInput struct {
	ExplicitGroupCodes []string
	Overrides          []GroupOverride
	InheritEnabled     bool
}

type AssignmentService struct {
	db        *gorm.DB
	cache     cache.ProjectionCache
	publisher Publisher
	recorder  Recorder
}

type AssignmentOption func(*AssignmentService)

func WithProjectionCache(c cache.ProjectionCache) AssignmentOption {
	return func(s *AssignmentService) { s.cache = c }
}

func WithPublisher(p Publisher) AssignmentOption {
	return func(s *AssignmentService) { s.publisher = p }
}

func WithRecorder(r Recorder) AssignmentOption {
	return func(s *AssignmentService) { s.recorder = r }
}

func NewAssignmentService(db *gorm.DB, opts ...AssignmentOption) *AssignmentService {
	s := &AssignmentService{
		db:        db,
		cache:     cache.Noop{},
		publisher: noopPublisher{},
		recorder:  noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save replaces the stored assignment set of itemCode with a freshly resolved one in
// a single transaction. On any failure the previous set stays in place.
func (s *AssignmentService) Save(ctx context.Context, itemCode string, in AssignmentInput) error {
	if itemCode == "" {
		s.recorder.ObserveAssignmentSave(resultOf(errItemCodeRequired))
		return errItemCodeRequired
	}

	var resolved []ResolvedGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		resolved, err = s.SaveTx(tx, itemCode, in)
		return err
	})
	if err != nil {
		err = txFailure(err, "save modifier assignments")
		s.recorder.ObserveAssignmentSave(resultOf(err))
		utils.ErrorLogger.WithFields(logrus.Fields{"item_code": itemCode}).WithError(err).Warn("modifier assignments not saved")
		return err
	}

	s.AfterSave(ctx, itemCode, resolved)
	return nil
}

// SaveTx runs the resolution and replacement inside tx. Callers that already hold a
// transaction (menu item creation) use it directly and call AfterSave once committed.
func (s *AssignmentService) SaveTx(tx *gorm.DB, itemCode string, in AssignmentInput) ([]ResolvedGroup, error) {
	var item models.MenuItem
	if err := tx.Where("code = ?", itemCode).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("menu item", itemCode)
		}
		return nil, errors.Wrap(err, "load menu item")
	}

	overrides, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	if missing, err := missingGroups(tx, in.ExplicitGroupCodes); err != nil {
		return nil, err
	} else if len(missing) > 0 {
		return nil, missingCodes("explicitGroupCodes", missing)
	}

	categoryCodes, version, err := categoryGroupCodes(tx, item.CategoryCode)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&item).Updates(map[string]interface{}{
		"inherit_modifier_group":     in.InheritEnabled,
		"modifiers_resolved_version": version,
	}).Error; err != nil {
		return nil, errors.Wrap(err, "update inherit flag")
	}

	resolved := ResolveModifierGroups(in.ExplicitGroupCodes, categoryCodes, in.InheritEnabled)

	var inherited []string
	for _, r := range resolved {
		if r.Inherited {
			inherited = append(inherited, r.GroupCode)
		}
	}
	if missing, err := missingGroups(tx, inherited); err != nil {
		return nil, err
	} else if len(missing) > 0 {
		return nil, notFound("modifier group", missing[0])
	}

	if err := tx.Where("item_code = ?", itemCode).Delete(&models.ItemModifierAssignment{}).Error; err != nil {
		return nil, errors.Wrap(err, "delete previous assignments")
	}

	if len(resolved) == 0 {
		return resolved, nil
	}

	rows := make([]models.ItemModifierAssignment, 0, len(resolved))
	for i, r := range resolved {
		row := models.ItemModifierAssignment{
			ItemCode:                  itemCode,
			GroupCode:                 r.GroupCode,
			Position:                  i,
			InheritFromMenuGroup:      r.Inherited,
			IsInheritFromMenuCategory: r.Inherited,
		}
		if o, ok := overrides[r.GroupCode]; ok && !r.Inherited {
			row.IsRequired = o.IsRequired
			row.IsMultiselect = o.IsMultiselect
			row.MinSelection = o.MinSelection
			row.MaxSelection = o.MaxSelection
		}
		rows = append(rows, row)
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "insert assignments")
	}
	return resolved, nil
}

// AfterSave runs the post-commit side effects of a save.
func (s *AssignmentService) AfterSave(ctx context.Context, itemCode string, resolved []ResolvedGroup) {
	if err := s.cache.InvalidateItem(ctx, itemCode); err != nil {
		utils.ErrorLogger.WithField("item_code", itemCode).WithError(err).Warn("projection cache invalidation failed")
	}
	s.recorder.ObserveAssignmentSave(resultOf(nil))
	s.publisher.Publish(EventAssignmentsSaved, map[string]interface{}{
		"item_code": itemCode,
		"groups":    resolved,
	})
	utils.InfoLogger.WithFields(logrus.Fields{
		"item_code": itemCode,
		"groups":    len(resolved),
	}).Info("modifier assignments saved")
}

// ItemChanged invalidates one item's projection and announces the change.
func (s *AssignmentService) ItemChanged(ctx context.Context, itemCode, action string) {
	if err := s.cache.InvalidateItem(ctx, itemCode); err != nil {
		utils.ErrorLogger.WithField("item_code", itemCode).WithError(err).Warn("projection cache invalidation failed")
	}
	s.publisher.Publish(EventMenuItemUpdated, map[string]interface{}{
		"item_code": itemCode,
		"action":    action,
	})
}

// ModifiersChanged drops every cached projection and notifies dashboards. Controllers
// call it after committing changes to groups, options or category links.
func (s *AssignmentService) ModifiersChanged(ctx context.Context, event string, data interface{}) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		utils.ErrorLogger.WithField("event", event).WithError(err).Warn("projection cache invalidation failed")
	}
	s.publisher.Publish(event, data)
}

// Refresh re-resolves itemCode against its category's current links, keeping the
// item's explicit selections, their overrides and its inherit flag.
func (s *AssignmentService) Refresh(ctx context.Context, itemCode string) error {
	if itemCode == "" {
		return errItemCodeRequired
	}

	var resolved []ResolvedGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		resolved, err = s.RefreshTx(tx, itemCode)
		return err
	})
	if err != nil {
		err = txFailure(err, "refresh modifier assignments")
		s.recorder.ObserveAssignmentSave(resultOf(err))
		return err
	}

	s.AfterSave(ctx, itemCode, resolved)
	return nil
}

// RefreshTx is Refresh inside the caller's transaction, used when an item moves to
// another category.
func (s *AssignmentService) RefreshTx(tx *gorm.DB, itemCode string) ([]ResolvedGroup, error) {
	in, err := currentInput(tx, itemCode)
	if err != nil {
		return nil, err
	}
	return s.SaveTx(tx, itemCode, in)
}

// RefreshStale refreshes every inheriting item whose category links changed since its
// last save. It keeps going past individual failures and returns the first one.
func (s *AssignmentService) RefreshStale(ctx context.Context) (int, error) {
	codes, err := s.StaleItemCodes(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var firstErr error
	for _, code := range codes {
		if err := s.Refresh(ctx, code); err != nil {
			utils.ErrorLogger.WithField("item_code", code).WithError(err).Error("refresh of stale item failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}
	return refreshed, firstErr
}

// StaleItemCodes lists inheriting items resolved against an older category config.
func (s *AssignmentService) StaleItemCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := s.db.WithContext(ctx).
		Table("menu_items").
		Joins("JOIN menu_categories ON menu_categories.code = menu_items.category_code").
		Where("menu_items.inherit_modifier_group = ?", true).
		Where("menu_items.modifiers_resolved_version <> menu_categories.modifier_config_version").
		Order("menu_items.id ASC").
		Pluck("menu_items.code", &codes).Error
	if err != nil {
		return nil, errors.Wrap(err, "list stale menu items")
	}
	return codes, nil
}

var errItemCodeRequired = invalid("item_code", "required")

func validateInput(in AssignmentInput) (map[string]GroupOverride, error) {
	explicit := make(map[string]struct{}, len(in.ExplicitGroupCodes))
	for _, code := range in.ExplicitGroupCodes {
		if code == "" {
			return nil, invalid("explicitGroupCodes", "group code must not be empty")
		}
		explicit[code] = struct{}{}
	}

	overrides := make(map[string]GroupOverride, len(in.Overrides))
	for _, o := range in.Overrides {
		if _, ok := explicit[o.Code]; !ok {
			return nil, invalid("perGroupOverrides", "group %q is not an explicit selection", o.Code)
		}
		if _, dup := overrides[o.Code]; dup {
			return nil, invalid("perGroupOverrides", "group %q overridden twice", o.Code)
		}
		if err := ValidateSelectionBounds("perGroupOverrides", o.MinSelection, o.MaxSelection); err != nil {
			return nil, err
		}
		overrides[o.Code] = o
	}
	return overrides, nil
}

// ValidateSelectionBounds checks a min/max selection pair, either of which may be unset.
func ValidateSelectionBounds(field string, minSel, maxSel *int) error {
	if minSel != nil && *minSel < 0 {
		return invalid(field, "minSelection must not be negative")
	}
	if maxSel != nil && *maxSel < 0 {
		return invalid(field, "maxSelection must not be negative")
	}
	if minSel != nil && maxSel != nil && *minSel > *maxSel {
		return invalid(field, "minSelection %d exceeds maxSelection %d", *minSel, *maxSel)
	}
	return nil
}

// missingGroups returns the codes that have no ModifierGroup row, in input order.
func missingGroups(tx *gorm.DB, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var found []string
	if err := tx.Model(&models.ModifierGroup{}).Where("code IN ?", codes).Pluck("code", &found).Error; err != nil {
		return nil, errors.Wrap(err, "look up modifier groups")
	}
	live := make(map[string]struct{}, len(found))
	for _, c := range found {
		live[c] = struct{}{}
	}

	var missing []string
	reported := map[string]struct{}{}
	for _, c := range codes {
		_, ok := live[c]
		_, dup := reported[c]
		if !ok && !dup {
			reported[c] = struct{}{}
			missing = append(missing, c)
		}
	}
	return missing, nil
}

// categoryGroupCodes returns the category's linked group codes in link order and its
// current config version. An item without a category inherits nothing.
func categoryGroupCodes(tx *gorm.DB, categoryCode *string) ([]string, uint, error) {
	if categoryCode == nil || *categoryCode == "" {
		return nil, 0, nil
	}

	var category models.MenuCategory
	if err := tx.Where("code = ?", *categoryCode).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, notFound("menu category", *categoryCode)
		}
		return nil, 0, errors.Wrap(err, "load menu category")
	}

	var codes []string
	if err := tx.Model(&models.CategoryModifierLink{}).
		Where("category_code = ?", category.Code).
		Order("id ASC").
		Pluck("group_code", &codes).Error; err != nil {
		return nil, 0, errors.Wrap(err, "load category modifier links")
	}
	return codes, category.ModifierConfigVersion, nil
}

// currentInput rebuilds the input that produced an item's stored explicit rows.
func currentInput(tx *gorm.DB, itemCode string) (AssignmentInput, error) {
	var item models.MenuItem
	if err := tx.Where("code = ?", itemCode).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssignmentInput{}, notFound("menu item", itemCode)
		}
		return AssignmentInput{}, errors.Wrap(err, "load menu item")
	}

	var rows []models.ItemModifierAssignment
	if err := tx.Where("item_code = ? AND inherit_from_menu_group = ?", itemCode, false).
		Order("position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return AssignmentInput{}, errors.Wrap(err, "load explicit assignments")
	}

	in := AssignmentInput{InheritEnabled: item.InheritModifierGroup}
	for _, r := range rows {
		in.ExplicitGroupCodes = append(in.ExplicitGroupCodes, r.GroupCode)
		if r.IsRequired != nil || r.IsMultiselect != nil || r.MinSelection != nil || r.MaxSelection != nil {
			in.Overrides = append(in.Overrides, GroupOverride{
				Code:          r.GroupCode,
				IsRequired:    r.IsRequired,
				IsMultiselect: r.IsMultiselect,
				MinSelection:  r.MinSelection,
				MaxSelection:  r.MaxSelection,
			})
		}
	}
	return in, nil
}

func resultOf(err error) string {
	var nf *NotFoundError
	var ve *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

type noopRecorder struct{}

func (noopRecorder) ObserveAssignmentSave(string)  {}
func (noopRecorder) ObserveProjectionCache(string) {}
