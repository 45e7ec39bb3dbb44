package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

type ModifierOptionView struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	IsDefault    bool    `json:"isDefault"`
	DisplayOrder *int    `json:"displayOrder"`
	Active       bool    `json:"active"`
}

type ModifierGroupView struct {
	Code         string               `json:"code"`
	Name         string               `json:"name"`
	CategoryCode *string              `json:"categoryCode"`
	Options      []ModifierOptionView `json:"options"`
}

// AssignmentView is one entry of an item's modifier configuration as the editing UI
// sees it. The selection policy is the group's own, with explicit overrides applied.
type AssignmentView struct {
	GroupCode     string            `json:"groupCode"`
	Inherited     bool              `json:"inherited"`
	IsRequired    bool              `json:"isRequired"`
	IsMultiselect bool              `json:"isMultiselect"`
	MinSelection  *int              `json:"minSelection"`
	MaxSelection  *int              `json:"maxSelection"`
	Stale         bool              `json:"stale"`
	Group         ModifierGroupView `json:"group"`
}

// ProjectForItem returns the stored assignment set of itemCode in stored order, each
// group carrying its active options. An unknown item projects to an empty list.
func (s *AssignmentService) ProjectForItem(ctx context.Context, itemCode string) ([]AssignmentView, error) {
	views := []AssignmentView{}
	if itemCode == "" {
		return views, nil
	}

	// the slot is taken before the rows are read
	slot, hit, cacheErr := s.cache.Get(ctx, itemCode, &views)
	if cacheErr != nil {
		utils.ErrorLogger.WithField("item_code", itemCode).WithError(cacheErr).Warn("projection cache read failed")
	}
	if hit {
		s.recorder.ObserveProjectionCache("hit")
		return views, nil
	}
	s.recorder.ObserveProjectionCache("miss")

	views, err := s.project(s.db.WithContext(ctx), itemCode)
	if err != nil {
		return nil, err
	}

	// no slot means the cache could not be read, so nothing is written either
	if slot.Version != "" {
		if err := s.cache.Set(ctx, slot, views); err != nil {
			utils.ErrorLogger.WithField("item_code", itemCode).WithError(err).Warn("projection cache write failed")
		}
	}
	return views, nil
}

func (s *AssignmentService) project(db *gorm.DB, itemCode string) ([]AssignmentView, error) {
	views := []AssignmentView{}

	var item models.MenuItem
	err := db.Preload("Category").Where("code = ?", itemCode).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return views, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load menu item")
	}
	stale := isStale(item)

	var rows []models.ItemModifierAssignment
	if err := db.Where("item_code = ?", itemCode).
		Order("position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load assignments")
	}
	if len(rows) == 0 {
		return views, nil
	}

	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.GroupCode)
	}

	var groups []models.ModifierGroup
	if err := db.Where("code IN ?", codes).
		Preload("Items", func(q *gorm.DB) *gorm.DB {
			return q.Where("is_active = ?", true).
				Order("display_order IS NULL, display_order ASC, id ASC")
		}).
		Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, "load modifier groups")
	}
	byCode := make(map[string]models.ModifierGroup, len(groups))
	for _, g := range groups {
		byCode[g.Code] = g
	}

	for _, r := range rows {
		g, ok := byCode[r.GroupCode]
		if !ok {
			utils.ErrorLogger.WithField("item_code", itemCode).
				WithField("group_code", r.GroupCode).
				Error("assignment references a missing modifier group")
			continue
		}
		views = append(views, toAssignmentView(r, g, stale))
	}
	return views, nil
}

func toAssignmentView(r models.ItemModifierAssignment, g models.ModifierGroup, stale bool) AssignmentView {
	v := AssignmentView{
		GroupCode:     r.GroupCode,
		Inherited:     r.InheritFromMenuGroup,
		IsRequired:    g.IsRequired,
		IsMultiselect: g.IsMultiselect,
		MinSelection:  g.MinSelection,
		MaxSelection:  g.EffectiveMaxSelection(),
		Stale:         stale,
		Group: ModifierGroupView{
			Code:         g.Code,
			Name:         g.Name,
			CategoryCode: g.CategoryCode,
			Options:      make([]ModifierOptionView, 0, len(g.Items)),
		},
	}

	if r.IsRequired != nil {
		v.IsRequired = *r.IsRequired
	}
	if r.IsMultiselect != nil {
		v.IsMultiselect = *r.IsMultiselect
		if !v.IsMultiselect && g.MaxSelection == nil && r.MaxSelection == nil {
			one := 1
			v.MaxSelection = &one
		} else if v.IsMultiselect && g.MaxSelection == nil {
			v.MaxSelection = nil
		}
	}
	if r.MinSelection != nil {
		v.MinSelection = r.MinSelection
	}
	if r.MaxSelection != nil {
		v.MaxSelection = r.MaxSelection
	}

	for _, o := range g.Items {
		v.Group.Options = append(v.Group.Options, ModifierOptionView{
			Code:         o.Code,
			Name:         o.Name,
			Price:        o.Price,
			IsDefault:    o.IsDefault,
			DisplayOrder: o.DisplayOrder,
			Active:       o.IsActive,
		})
	}
	return v
}

// isStale reports whether an inheriting item's rows predate its category's current links.
func isStale(item models.MenuItem) bool {
	if !item.InheritModifierGroup || item.Category == nil {
		return false
	}
	return item.ModifiersResolvedVersion != item.Category.ModifierConfigVersion
}
