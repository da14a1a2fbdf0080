package handlers

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/person-admin/internal/api/dto"
	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/domain"
	"github.com/spec-kit/person-admin/internal/filter"
	"github.com/spec-kit/person-admin/internal/listview"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

// Headers exchanged with the htmx client.
const (
	HeaderViewID     = "X-View-ID"
	HeaderReplaceURL = "HX-Replace-Url"
	HeaderRedirect   = "HX-Redirect"
	headerCurrentURL = "HX-Current-URL"
)

const anonymousOperator = "anonymous"

// AdminHandler renders the person list and applies grid gestures to the
// caller's list view.
type AdminHandler struct {
	views      *listview.Registry
	basePath   string
	autoHideMs int
	canLogout  bool
	logger     *zap.Logger
}

// AdminOptions tunes rendering of the admin pages.
type AdminOptions struct {
	BasePath   string
	AutoHideMs int
	CanLogout  bool
}

// NewAdminHandler constructs handler.
func NewAdminHandler(views *listview.Registry, opts AdminOptions, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		views:      views,
		basePath:   opts.BasePath,
		autoHideMs: opts.AutoHideMs,
		canLogout:  opts.CanLogout,
		logger:     logger,
	}
}

// Mount GET /admin/people. Every full page load starts a new view from
// the URL query.
func (h *AdminHandler) Mount(c *fiber.Ctx) error {
	// ParseQuery keeps every pair it could decode; only the bad ones fall
	// back to their defaults.
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		h.logger.Debug("malformed view query", zap.Error(err))
	}

	view := h.views.Mount(c.UserContext(), "", operatorName(c), query)
	snap := view.Snapshot()

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return renderTemplate(c, "people_page", newPeoplePage(snap, h.autoHideMs, h.canLogout))
}

// Filter POST /admin/people/filter.
func (h *AdminHandler) Filter(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	var form dto.FilterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view.ApplyFilters(c.UserContext(), form.Search, domain.PersonRole(form.Role), domain.EmployeeType(form.EmployeeType))
	return h.renderGrid(c, view)
}

// Paginate POST /admin/people/pagination.
func (h *AdminHandler) Paginate(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	var form dto.PaginationForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view.Paginate(c.UserContext(), form.Page, form.PageSize)
	return h.renderGrid(c, view)
}

// Sort POST /admin/people/sort.
func (h *AdminHandler) Sort(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	var form dto.SortForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	err = view.SortBy(c.UserContext(), domain.PersonField(form.Field), domain.SortDirection(form.Direction))
	if errors.Is(err, filter.ErrInvalidSort) {
		return apperrors.NewValidationError("unknown sort", map[string]any{
			"field":     form.Field,
			"direction": form.Direction,
		})
	}
	if err != nil {
		return err
	}
	return h.renderGrid(c, view)
}

// Select POST /admin/people/selection.
func (h *AdminHandler) Select(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	view.Select(selectedIDs(c))
	return h.renderGrid(c, view)
}

// Export POST /admin/people/export.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	ids := view.Export(c.UserContext())
	h.logger.Info("export requested", zap.String("view_id", view.ID), zap.Int("rows", len(ids)))
	return h.renderGrid(c, view)
}

// DismissNotification POST /admin/people/notification/dismiss.
func (h *AdminHandler) DismissNotification(c *fiber.Ctx) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	view.DismissNotification()
	return h.renderGrid(c, view)
}

func (h *AdminHandler) view(c *fiber.Ctx) (*listview.View, error) {
	view, err := h.views.Get(c.Get(HeaderViewID))
	if errors.Is(err, listview.ErrViewNotFound) {
		return nil, apperrors.NewViewExpired(h.reloadTarget(c))
	}
	return view, err
}

// reloadTarget keeps the state the browser is showing when a view has
// expired, so a reload lands on the same page.
func (h *AdminHandler) reloadTarget(c *fiber.Ctx) string {
	current, err := url.Parse(c.Get(headerCurrentURL))
	if err != nil || current.Path != h.basePath {
		return h.basePath
	}
	return filter.Path(h.basePath, filter.Load(current.Query()))
}

func (h *AdminHandler) renderGrid(c *fiber.Ctx, view *listview.View) error {
	snap := view.Snapshot()
	c.Set(HeaderReplaceURL, snap.URL)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return renderTemplate(c, "grid", newPeoplePage(snap, h.autoHideMs, h.canLogout))
}

func selectedIDs(c *fiber.Ctx) []int64 {
	raw := c.Request().PostArgs().PeekMulti("ids")
	ids := make([]int64, 0, len(raw))
	for _, value := range raw {
		id, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func operatorName(c *fiber.Ctx) string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectID == "" {
		return anonymousOperator
	}
	return principal.SubjectID
}
