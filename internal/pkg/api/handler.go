package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/schema"
	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"go.uber.org/zap"
)

type playerDTO struct {
	Username        string    `json:"username"`
	UUID            string    `json:"uuid"`
	RemoteAddr      string    `json:"remoteAddress"`
	ProtocolVersion int32     `json:"protocolVersion"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
	Skin            string    `json:"skin,omitempty"`
}

func newPlayerDTO(s java.Session) playerDTO {
	dto := playerDTO{
		Username:        s.Username,
		UUID:            s.Profile.UUID.String(),
		ProtocolVersion: s.ProtocolVersion,
		AuthenticatedAt: s.AuthenticatedAt,
	}

	if s.RemoteAddr != nil {
		dto.RemoteAddr = s.RemoteAddr.String()
	}

	if skin, ok := s.Profile.Skin(); ok {
		dto.Skin = skin.Value
	}
	return dto
}

func getPlayerHandler(players PlayerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		s, ok := players.Get(username)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		render.JSON(w, r, newPlayerDTO(s))
	}
}

func getPlayersHandler(players PlayerRegistry) http.HandlerFunc {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return func(w http.ResponseWriter, r *http.Request) {
		reqDTO := &struct {
			UsernameRegex string `schema:"usernameRegex"`
		}{}

		if err := decoder.Decode(reqDTO, r.URL.Query()); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		sessions, err := players.Players(reqDTO.UsernameRegex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := struct {
			Online  int         `json:"online"`
			Players []playerDTO `json:"players"`
		}{
			Online:  players.Online(),
			Players: make([]playerDTO, 0, len(sessions)),
		}
		for _, s := range sessions {
			resp.Players = append(resp.Players, newPlayerDTO(s))
		}

		render.JSON(w, r, resp)
	}
}

func deletePlayerHandler(players PlayerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		err := players.Kick(username)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, java.ErrPlayerNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func reloadConfigHandler(reload ReloadFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reload(); err != nil {
			logger.Warn("failed to reload config", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
