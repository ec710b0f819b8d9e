package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
	"github.com/angelmondragon/tiny-inventory/pkg/pagination"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

// WriteSuccess writes a 200 success envelope. data may be nil.
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(w, http.StatusOK, message, data)
}

func WriteCreated(w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(w, http.StatusCreated, message, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Status: types.StatusSuccess, Data: data, Message: message})
}

// WritePage writes a listing together with its pagination block.
func WritePage(w http.ResponseWriter, message string, data any, meta pagination.Meta) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Status:     types.StatusSuccess,
		Data:       data,
		Message:    message,
		Pagination: &meta,
	})
}

// WriteError maps err onto the error envelope. Untyped errors go through
// the datastore translation first; anything still unknown is a 500 with a
// generic message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(pkgerrors.FromDatastore(err))
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.HTTPStatus < http.StatusInternalServerError {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Status:  types.ErrorStatus(meta.HTTPStatus),
		Code:    string(typed.Code()),
		Message: msg,
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error = details
		}
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

// WriteJSON writes an arbitrary payload, used for envelopes built by callers.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
