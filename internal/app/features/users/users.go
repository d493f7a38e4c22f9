// internal/app/features/users/users.go
package users

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/trainhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/normalize"
	"github.com/dalemusser/trainhub/internal/app/system/paging"
	"github.com/dalemusser/trainhub/internal/app/system/search"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// resolveActor loads the request identity plus led-team scope.
func (h *Handler) resolveActor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	return gates.ResolveActor(w, r, h.Memberships, h.Log)
}

// targetFromURL parses {id} and loads the target user, writing the
// error response on failure.
func (h *Handler) targetFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "invalid user id")
		return nil, false
	}
	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "load user", err)
		}
		return nil, false
	}
	return user, true
}

// ServeListUsers handles GET /api/v1/users.
// Admins list everyone; team leads list the users on teams they lead.
// Filters: role, active (true|false), q (name prefix, or email prefix
// when the query looks like an address and active is constrained).
// Pagination is keyset-based via before/after cursors.
func (h *Handler) ServeListUsers(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanListUsers(a) {
		httpjson.Forbidden(w, "not allowed to list users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	activeParam := r.URL.Query().Get("active")
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	filter := bson.M{}
	if role := normalize.Role(r.URL.Query().Get("role")); role != "" {
		filter["roles"] = role
	}
	if activeParam != "" {
		filter["active"] = activeParam == "true"
	}

	// Team leads see only the rosters of their teams.
	scoped := !a.IsSuperuser() && !a.IsAdmin()
	if scoped {
		ids, err := h.Memberships.UsersInTeams(ctx, a.TeamsLed)
		if err != nil {
			httpjson.Internal(w, h.Log, "resolve team rosters", err)
			return
		}
		if len(ids) == 0 {
			httpjson.Respond(w, http.StatusOK, map[string]any{"users": []models.User{}, "total": 0})
			return
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	// Email-looking queries pivot sort and match to the email index.
	var pivot bool
	if scoped {
		pivot = search.EmailPivotOK(q, activeParam, true)
	} else {
		pivot = search.EmailPivotGlobalOK(q, activeParam)
	}
	sortField := "full_name_ci"
	if q != "" {
		if pivot {
			sortField = "email"
			filter["email"] = bson.M{"$regex": "^" + regexp.QuoteMeta(strings.ToLower(q))}
		} else {
			filter["full_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(q))}
		}
	}

	total, err := h.Users.Count(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "count users", err)
		return
	}

	before, after := paging.Cursors(r)
	cfg := paging.ConfigureKeyset(before, after)
	if window := cfg.KeysetWindow(sortField); window != nil {
		maps.Copy(filter, window)
	}
	find := options.Find()
	cfg.ApplyToFind(find, sortField)

	list, err := h.Users.Find(ctx, filter, find)
	if err != nil {
		httpjson.Internal(w, h.Log, "list users", err)
		return
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(list)
	}
	page := paging.TrimPage(&list, before, after)
	prev, next := paging.BuildCursors(list,
		func(u models.User) string {
			if sortField == "email" {
				return u.Email
			}
			return u.FullNameCI
		},
		func(u models.User) primitive.ObjectID { return u.ID })

	if list == nil {
		list = []models.User{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{
		"users":    list,
		"total":    total,
		"has_prev": page.HasPrev,
		"has_next": page.HasNext,
		"prev":     prev,
		"next":     next,
	})
}

type createRequest struct {
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Roles      []string `json:"roles"`
	AuthMethod string   `json:"auth_method"`
	Password   string   `json:"password"`
}

// ServeCreateUser handles POST /api/v1/users.
// Direct account provisioning by admins; most onboarding goes through
// invites instead.
func (h *Handler) ServeCreateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !userpolicy.CanCreateUser(a) {
		httpjson.Forbidden(w, "not allowed to create users")
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "required"
	}
	if err := authutil.ValidateEmail(req.Email); err != nil {
		fields["email"] = "invalid"
	}
	roles := authz.NormalizeRoles(req.Roles)
	if len(roles) == 0 {
		fields["roles"] = "at least one valid role is required"
	}
	method := normalize.AuthMethod(req.AuthMethod)
	if method == "" {
		method = models.DefaultAuthMethod
	}
	if method == "password" {
		if err := authutil.ValidatePassword(req.Password); err != nil {
			fields["password"] = err.Error()
		}
	}
	if len(fields) > 0 {
		httpjson.FieldErrors(w, "invalid user", fields)
		return
	}

	// Only superusers may mint superusers.
	if authz.ContainsRole(roles, authz.RoleSuperuser) && !a.IsSuperuser() {
		httpjson.Forbidden(w, "only a superuser may grant the superuser role")
		return
	}

	u := models.User{
		FullName:   strings.TrimSpace(req.FullName),
		Email:      normalize.Email(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		AuthMethod: method,
		Roles:      roles,
		Active:     true,
	}
	if method == "password" {
		hash, err := authutil.HashPassword(req.Password)
		if err != nil {
			httpjson.Internal(w, h.Log, "hash password", err)
			return
		}
		u.PasswordHash = hash
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "email already in use")
		} else {
			httpjson.Internal(w, h.Log, "create user", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventUserCreated, a, &created.ID, map[string]string{
		"email": created.Email,
		"roles": strings.Join(created.Roles, ","),
	})
	httpjson.Respond(w, http.StatusCreated, created)
}

// ServeGetUser handles GET /api/v1/users/{id}.
func (h *Handler) ServeGetUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.targetFromURL(ctx, w, r)
	if !ok {
		return
	}
	targetTeams, err := h.Memberships.TeamsOf(ctx, target.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load target teams", err)
		return
	}
	if !userpolicy.CanViewUser(a, target.ID, targetTeams) {
		httpjson.Forbidden(w, "not allowed to view this user")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"user":  target,
		"teams": targetTeams,
	})
}

type patchRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// ServeUpdateUser handles PATCH /api/v1/users/{id}.
// Admin profile edits. Role and active changes have their own
// endpoints; self edits of name and phone go through /profile.
func (h *Handler) ServeUpdateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.targetFromURL(ctx, w, r)
	if !ok {
		return
	}
	if err := userpolicy.CanManageUser(a, target.ID, target.HasRole(authz.RoleSuperuser), false); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	var req patchRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	upd := userstore.ProfileUpdate{
		FullName: target.FullName,
		Email:    target.Email,
		Phone:    target.Phone,
	}
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			httpjson.FieldErrors(w, "name cannot be empty", map[string]string{"full_name": "required"})
			return
		}
		upd.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		if err := authutil.ValidateEmail(*req.Email); err != nil {
			httpjson.FieldErrors(w, "invalid email", map[string]string{"email": "invalid"})
			return
		}
		upd.Email = *req.Email
	}
	if req.Phone != nil {
		upd.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := h.Users.UpdateProfile(ctx, target.ID, upd); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "email already in use")
		} else {
			httpjson.Internal(w, h.Log, "update user", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventUserUpdated, a, &target.ID, nil)

	updated, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload user", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}
