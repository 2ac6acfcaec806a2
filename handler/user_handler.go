package handler

import (
	"encoding/json"
	"errors"
	"go-users-api/common"
	"go-users-api/logger"
	"go-users-api/model"
	"go-users-api/patch"
	"go-users-api/repository"
	"go-users-api/service"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AllowedCollectionMethods is advertised by OPTIONS /users.
const AllowedCollectionMethods = "POST, GET, OPTIONS"

type UserHandler struct {
	store  repository.IUserRepository
	mapper service.IUserMapper
	links  *LinkBuilder
}

func NewUserHandler(store repository.IUserRepository, mapper service.IUserMapper, links *LinkBuilder) *UserHandler {
	return &UserHandler{
		store:  store,
		mapper: mapper,
		links:  links,
	}
}

// userID returns the nil UUID when the path value is not a UUID.
func userID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	if err := common.WriteResponse(w, r, status, payload); err != nil {
		logger.Log.WithError(err).Warn("Failed to write response body")
	}
}

func notFound() *common.AppError {
	return common.NewAppError(http.StatusNotFound, "User not found", nil)
}

// GetUser godoc
// @Summary      Get a user
// @Description  Returns a single user. HEAD returns the headers without a body.
// @Tags         users
// @Produce      json,xml
// @Param        id   path      string  true  "User ID" format(uuid)
// @Success      200  {object}  model.UserResponse
// @Failure      404  {object}  common.AppError
// @Router       /users/{id} [get]
// @Router       /users/{id} [head]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	id := userID(r)
	if id == uuid.Nil {
		return notFound()
	}

	user, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound()
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve user", err)
	}

	writeResponse(w, r, http.StatusOK, h.mapper.ToResponse(user))
	return nil
}

// CreateUser godoc
// @Summary      Create a user
// @Description  Creates a user and returns its id. The login may only contain letters and digits.
// @Tags         users
// @Accept       json,xml
// @Produce      json,xml
// @Security     BearerAuth
// @Param        user  body      model.CreateUserRequest  true  "User to create"
// @Success      201   {object}  model.CreatedResponse
// @Header       201   {string}  Location  "URI of the new user"
// @Failure      400   {object}  common.AppError
// @Failure      415   {object}  common.AppError
// @Failure      422   {object}  common.AppError
// @Router       /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateUserRequest
	if err := common.DecodeBody(w, r, &req); err != nil {
		return common.BodyError(err)
	}
	if errs := common.Validate(req); !errs.Empty() {
		return common.NewValidationError(errs)
	}

	user := h.mapper.FromCreate(req)
	if err := h.store.Insert(r.Context(), user); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not create user", err)
	}

	location, err := h.links.Link(r, RouteGetUser, map[string]string{"id": user.ID.String()}, nil)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not build user link", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"login":   user.Login,
	}).Info("User created")

	w.Header().Set("Location", location)
	writeResponse(w, r, http.StatusCreated, model.CreatedResponse{ID: user.ID})
	return nil
}

// DeleteUser godoc
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID" format(uuid)
// @Success      204
// @Failure      404  {object}  common.AppError
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	id := userID(r)
	if id == uuid.Nil {
		return notFound()
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound()
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not delete user", err)
	}

	logger.Log.WithField("user_id", id).Info("User deleted")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ReplaceUser godoc
// @Summary      Replace or create a user
// @Description  Replaces the user with the given id, creating it when it does not exist.
// @Tags         users
// @Accept       json,xml
// @Produce      json,xml
// @Security     BearerAuth
// @Param        id    path      string                   true  "User ID" format(uuid)
// @Param        user  body      model.UpdateUserRequest  true  "Full user representation"
// @Success      201   {object}  model.UserResponse  "Created"
// @Success      204   "Replaced"
// @Failure      400   {object}  common.AppError
// @Failure      422   {object}  common.AppError
// @Router       /users/{id} [put]
func (h *UserHandler) ReplaceUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	id := userID(r)
	if id == uuid.Nil {
		return common.NewAppError(http.StatusBadRequest, "A valid user id is required", nil)
	}

	var req model.UpdateUserRequest
	if err := common.DecodeBody(w, r, &req); err != nil {
		return common.BodyError(err)
	}
	if errs := common.Validate(req); !errs.Empty() {
		return common.NewValidationError(errs)
	}

	user := h.mapper.FromUpdate(id, req)
	created, err := h.store.Upsert(r.Context(), user)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not save user", err)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id": id,
		"created": created,
	})
	if !created {
		log.Info("User replaced")
		w.WriteHeader(http.StatusNoContent)
		return nil
	}

	location, err := h.links.Link(r, RouteGetUser, map[string]string{"id": id.String()}, nil)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not build user link", err)
	}
	log.Info("User created by upsert")
	w.Header().Set("Location", location)
	writeResponse(w, r, http.StatusCreated, h.mapper.ToResponse(user))
	return nil
}

// PatchUser godoc
// @Summary      Partially update a user
// @Description  Applies a JSON Patch document. Patch and field errors are reported before existence is checked.
// @Description  Malformed operations are rejected with 422 even when the user cannot be loaded.
// @Tags         users
// @Accept       json-patch+json,json
// @Security     BearerAuth
// @Param        id     path  string             true  "User ID" format(uuid)
// @Param        patch  body  []patch.Operation  true  "JSON Patch document"
// @Success      204
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      422  {object}  common.AppError
// @Router       /users/{id} [patch]
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	id := userID(r)
	if id == uuid.Nil {
		return notFound()
	}

	var ops []patch.Operation
	if err := common.DecodeJSONPatch(w, r, &ops); err != nil {
		return common.BodyError(err)
	}

	// These failures hold for any stored user, so they are reported even
	// when the lookup below fails.
	invalid := patchErrors(patch.Check(ops, &model.UpdateUserRequest{}))

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		if !invalid.Empty() {
			return common.NewValidationError(invalid)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve user", err)
	}

	// Unknown users are patched from a blank document so that an invalid
	// patch is still reported as 422 rather than 404.
	var doc model.UpdateUserRequest
	if existing != nil {
		doc = h.mapper.ToUpdate(existing)
	}

	errs := patchErrors(patch.Apply(ops, &doc))
	errs.Merge(common.Validate(doc))
	if !errs.Empty() {
		return common.NewValidationError(errs)
	}

	if existing == nil {
		return notFound()
	}

	if err := h.store.Update(r.Context(), h.mapper.FromUpdate(id, doc)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound()
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update user", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    id,
		"operations": len(ops),
	}).Info("User patched")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// patchErrors keys each error by the member it addressed, or "patch" when
// no member was resolved.
func patchErrors(perrs []*patch.Error) common.ValidationErrors {
	errs := common.ValidationErrors{}
	for _, perr := range perrs {
		field := perr.Field
		if field == "" {
			field = "patch"
		}
		errs.Add(field, perr.Message)
	}
	return errs
}

func queryInt(q url.Values, key string, fallback int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// ListUsers godoc
// @Summary      List users
// @Description  Returns one page of users. Pagination metadata is sent as JSON in the X-Pagination header.
// @Tags         users
// @Produce      json,xml
// @Param        pageNumber  query     int  false  "Page number, values below 1 become 1"  default(1)
// @Param        pageSize    query     int  false  "Page size, clamped to [1, 20]"         default(10)
// @Success      200         {array}   model.UserResponse
// @Header       200         {string}  X-Pagination  "JSON pagination metadata"
// @Failure      400         {object}  common.AppError
// @Router       /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	q := r.URL.Query()
	pageNumber, err := queryInt(q, "pageNumber", 1)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "pageNumber must be an integer", err)
	}
	pageSize, err := queryInt(q, "pageSize", model.DefaultPageSize)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "pageSize must be an integer", err)
	}
	pageReq := model.PageRequest{PageNumber: pageNumber, PageSize: pageSize}.Normalize()

	page, err := h.store.List(r.Context(), pageReq)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve users", err)
	}

	meta := model.PaginationMetadata{
		TotalCount:  page.TotalCount,
		PageSize:    page.PageSize,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages(),
	}
	if page.HasPrevious() {
		link, err := h.pageLink(r, page.CurrentPage-1, page.PageSize)
		if err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not build page link", err)
		}
		meta.PreviousPageLink = &link
	}
	if page.HasNext() {
		link, err := h.pageLink(r, page.CurrentPage+1, page.PageSize)
		if err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not build page link", err)
		}
		meta.NextPageLink = &link
	}

	header, err := json.Marshal(meta)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not encode pagination metadata", err)
	}
	w.Header().Set("X-Pagination", string(header))

	writeResponse(w, r, http.StatusOK, h.mapper.ToResponses(page.Items))
	return nil
}

func (h *UserHandler) pageLink(r *http.Request, pageNumber, pageSize int) (string, error) {
	return h.links.Link(r, RouteGetUsers, nil, url.Values{
		"pageNumber": {strconv.Itoa(pageNumber)},
		"pageSize":   {strconv.Itoa(pageSize)},
	})
}

// UserOptions godoc
// @Summary      Supported methods for the user collection
// @Tags         users
// @Success      200
// @Header       200  {string}  Allow  "POST, GET, OPTIONS"
// @Router       /users [options]
func (h *UserHandler) UserOptions(w http.ResponseWriter, r *http.Request) *common.AppError {
	w.Header().Set("Allow", AllowedCollectionMethods)
	w.WriteHeader(http.StatusOK)
	return nil
}
