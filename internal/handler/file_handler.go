/*
Package handler provides HTTP handler functions for message attachments.

Two upload flows are supported. The presign flow hands the client a
time-limited URL to upload directly to object storage, after which the
client registers the uploaded key as a message. The direct flow accepts a
multipart upload, streams it into storage server-side and posts the message
in one request.
*/
package handler

import (
	"net/http"

	"chatgrid/internal/app/message"
	"chatgrid/internal/app/room"
	"chatgrid/internal/app/storage"
	"chatgrid/internal/app/user"
	"chatgrid/internal/pkg/errs"
	"chatgrid/internal/pkg/logx"
	"chatgrid/internal/pkg/req"
	"chatgrid/internal/pkg/resp"
)

// resolveTarget authenticates the caller and resolves the room named in
// the query string ("kind" and "room" parameters).
func resolveTarget(deps *AppDeps, w http.ResponseWriter, r *http.Request) (user.User, room.Room, bool) {
	viewer, ok := identity(w, r)
	if !ok {
		return user.User{}, room.Room{}, false
	}

	kind, ok := room.ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		resp.RespondError(w, r, errs.NewError(errs.ErrRoomKindInvalid))
		return user.User{}, room.Room{}, false
	}

	rm, err := deps.Chat.ResolveRoom(r.Context(), kind, r.URL.Query().Get("room"), viewer)
	if err != nil {
		respondErr(w, r, err)
		return user.User{}, room.Room{}, false
	}

	return viewer, rm, true
}

// PresignUploadInput defines the JSON input for generating an upload URL.
type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUpload generates a time-limited, pre-signed URL for a direct
// client upload, scoped to a room the caller may post to.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, rm, ok := resolveTarget(deps, w, r)
		if !ok {
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := storage.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		if err := storage.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileKey := storage.BuildKey(rm.Channel(), input.FileName)

		url, err := deps.Storage.PresignUpload(r.Context(), fileKey, input.MimeType, input.FileSize, storage.PresignedURLDuration)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// RegisterUploadInput defines the JSON input for turning a completed direct
// upload into a message.
type RegisterUploadInput struct {
	FileKey  string `json:"fileKey"`
	FileName string `json:"fileName"`
	Body     string `json:"body,omitempty"`
}

// HandleRegisterUpload posts a message for an object the client uploaded
// through a presigned URL. The key is verified against the room and the
// object must actually exist in storage; its stored content type becomes
// the message's attachment type.
func HandleRegisterUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, rm, ok := resolveTarget(deps, w, r)
		if !ok {
			return
		}

		var input RegisterUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateKey(rm.Channel(), input.FileKey); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		info, err := deps.Storage.Head(r.Context(), input.FileKey)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if customErr := storage.ValidateFileSize(info.ContentLength); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		att := &message.Attachment{
			URL:      input.FileKey,
			MimeType: info.ContentType,
			FileName: input.FileName,
		}

		msg, err := deps.Chat.PostMessage(r.Context(), rm, viewer, input.Body, att)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messageId": msg.ID})
	}
}

// HandleDirectUpload accepts a multipart upload, streams the file into
// object storage and posts the message in the same request. The form fields
// are "file" and an optional "body" caption.
func HandleDirectUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, rm, ok := resolveTarget(deps, w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAttachmentSize+64*1024)

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if customErr := storage.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if customErr := storage.ValidateFileType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey := storage.BuildKey(rm.Channel(), header.Filename)

		if err := deps.Storage.Upload(r.Context(), fileKey, mimeType, file); err != nil {
			respondErr(w, r, err)
			return
		}

		att := &message.Attachment{
			URL:      fileKey,
			MimeType: mimeType,
			FileName: header.Filename,
		}

		msg, err := deps.Chat.PostMessage(r.Context(), rm, viewer, r.FormValue("body"), att)
		if err != nil {
			// The object is already stored; remove it so failed posts do
			// not leak orphans.
			if delErr := deps.Storage.Delete(r.Context(), fileKey); delErr != nil {
				logx.Error(delErr, "Failed to clean up orphaned upload.", "key", fileKey)
			}
			respondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messageId": msg.ID, "fileKey": fileKey})
	}
}

// HandlePresignDownload redirects to a time-limited download URL for an
// attachment key, after checking the caller may read the room the key
// belongs to.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, rm, ok := resolveTarget(deps, w, r)
		if !ok {
			return
		}

		fileKey := r.URL.Query().Get("k")
		if customErr := storage.ValidateKey(rm.Channel(), fileKey); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if err != nil {
			respondErr(w, r, err)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
