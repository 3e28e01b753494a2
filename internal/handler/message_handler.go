package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatgrid/internal/app/message"
	"chatgrid/internal/app/room"
	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/resp"
)

// messageView is the JSON shape messages are rendered as in history
// responses.
type messageView struct {
	ID         int64     `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body,omitempty"`
	FileKey    string    `json:"fileKey,omitempty"`
	FileType   string    `json:"fileType,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func viewOfMessage(msg message.Message) messageView {
	view := messageView{
		ID:         msg.ID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
	if msg.Attachment != nil {
		view.FileKey = msg.Attachment.URL
		view.FileType = msg.Attachment.MimeType
		view.FileName = msg.Attachment.FileName
	}
	return view
}

// HandleMessageHistory returns a room's recent messages in display order,
// oldest first. Access follows the same rules as connecting: members only
// outside global rooms.
func HandleMessageHistory(deps *AppDeps) http.HandlerFunc {
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

		messages, err := deps.Messages.ListRecent(r.Context(), rm.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		views := make([]messageView, 0, len(messages))
		for _, msg := range messages {
			views = append(views, viewOfMessage(msg))
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": views})
	}
}
