/*
Package handler provides HTTP handler functions for room management:
listing, group creation and maintenance, private conversations.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgrid/internal/app/room"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/auth/jwt"
	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/logx"
	"chatgrid/internal/pkg/req"
	"chatgrid/internal/pkg/resp"
)

// respondErr maps a service error onto the JSON error envelope. Unrecognized
// errors are logged and reported as unknown.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		resp.RespondError(w, r, customErr)
		return
	}

	logx.Error(err, "Unhandled error in request handler.", "path", r.URL.Path)
	resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
}

// identity extracts the authenticated user or responds with an
// authorization error.
func identity(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
		return user.User{}, false
	}
	return user.User{ID: payload.ID, Username: payload.Username}, true
}

// roomView is the JSON shape rooms are rendered as.
type roomView struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CreatorID   string `json:"creatorId,omitempty"`
}

func viewOf(rm room.Room) roomView {
	return roomView{
		Kind:        string(rm.Kind),
		Name:        rm.Name,
		Description: rm.Description,
		ImageURL:    rm.ImageURL,
		CreatorID:   rm.CreatorID,
	}
}

// HandleListRooms returns the rooms of one kind visible to the caller:
// every global room, and the group or private rooms the caller belongs to.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		kind, ok := room.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomKindInvalid))
			return
		}

		rooms, err := deps.Rooms.ListForViewer(r.Context(), kind, viewer.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		views := make([]roomView, 0, len(rooms))
		for _, rm := range rooms {
			views = append(views, viewOf(rm))
		}

		resp.RespondSuccess(w, r, map[string]any{"rooms": views})
	}
}

type memberInput struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func toUsers(members []memberInput) []user.User {
	users := make([]user.User, 0, len(members))
	for _, m := range members {
		users = append(users, user.User{ID: m.ID, Username: m.Username})
	}
	return users
}

type CreateGroupInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Members     []memberInput `json:"members,omitempty"`
}

// HandleCreateGroup creates a group room. The stored name is prefixed with
// the creator's username so display names never collide across owners.
func HandleCreateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creator, ok := identity(w, r)
		if !ok {
			return
		}

		var input CreateGroupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		rm, err := deps.Rooms.CreateGroup(r.Context(), room.CreateGroupParams{
			Name:        room.GroupName(creator.Username, input.Name),
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Creator:     creator,
			Members:     toUsers(input.Members),
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}

		logx.Info("Group room created", "name", rm.Name, "creator_id", creator.ID)
		resp.RespondSuccess(w, r, map[string]any{"room": viewOf(rm)})
	}
}

// ownedGroup loads the named group room and checks the caller owns it.
func ownedGroup(deps *AppDeps, r *http.Request, viewer user.User) (room.Room, error) {
	name := chi.URLParam(r, "name")
	if name == "" {
		return room.Room{}, errs.NewError(errs.ErrInvalidParams)
	}

	rm, err := deps.Rooms.Get(r.Context(), room.KindGroup, name)
	if err != nil {
		return room.Room{}, err
	}

	if rm.CreatorID != viewer.ID {
		return room.Room{}, errs.NewError(errs.ErrNotRoomOwner)
	}

	return rm, nil
}

type UpdateGroupInput struct {
	Description string        `json:"description"`
	ImageURL    string        `json:"imageUrl"`
	Members     []memberInput `json:"members,omitempty"`
}

// HandleUpdateGroup edits a group room's description, image and member set.
// Only the creator may edit, and the creator always stays a member.
func HandleUpdateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		rm, err := ownedGroup(deps, r, viewer)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		var input UpdateGroupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		params := room.UpdateGroupParams{
			Description: input.Description,
			ImageURL:    input.ImageURL,
		}
		if input.Members != nil {
			params.Members = toUsers(input.Members)
		}

		if err := deps.Rooms.UpdateGroup(r.Context(), rm, params); err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"name": rm.Name})
	}
}

// HandleDeleteGroup deletes a group room. Only the creator may delete.
func HandleDeleteGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		rm, err := ownedGroup(deps, r, viewer)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		if _, err := deps.Rooms.Delete(r.Context(), room.KindGroup, rm.Name); err != nil {
			respondErr(w, r, err)
			return
		}

		logx.Info("Group room deleted", "name", rm.Name, "creator_id", viewer.ID)
		resp.RespondSuccess(w, r, map[string]any{"name": rm.Name})
	}
}

// HandleLeaveGroup removes the caller from a group room's member set. The
// creator cannot leave their own group; they delete it instead.
func HandleLeaveGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		name := chi.URLParam(r, "name")
		if name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		rm, err := deps.Rooms.Get(r.Context(), room.KindGroup, name)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		if rm.CreatorID == viewer.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Rooms.RemoveMember(r.Context(), rm.ID, viewer.ID); err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"name": rm.Name})
	}
}

type StartPrivateInput struct {
	User memberInput `json:"user"`
}

// HandleStartPrivate resolves the private room between the caller and one
// other user, creating it on first use. Both participants always land in
// the same room regardless of who starts it.
func HandleStartPrivate(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		var input StartPrivateInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.User.ID == "" || input.User.Username == "" || input.User.ID == viewer.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		other := user.User{ID: input.User.ID, Username: input.User.Username}

		rm, err := deps.Rooms.GetOrCreatePrivate(r.Context(), viewer, other)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"room": viewOf(rm)})
	}
}

// HandleRoomMembers lists a room's members; callable by members only.
func HandleRoomMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := identity(w, r)
		if !ok {
			return
		}

		kind, ok := room.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomKindInvalid))
			return
		}

		rm, err := deps.Chat.ResolveRoom(r.Context(), kind, chi.URLParam(r, "name"), viewer)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		members, err := deps.Rooms.Members(r.Context(), rm.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"members": members})
	}
}
