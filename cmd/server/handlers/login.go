package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/fourkeys/store"
)

// DBStore defines the interface required by the LoginHandler for database operations.
type DBStore interface {
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

type TokenIssuer interface {
	GenerateJWT(userID string, username string) (string, error)
}

type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LoginHandler handles user login requests using database validation.
func LoginHandler(db DBStore, issuer TokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds LoginCredentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if creds.Username == "" || creds.Password == "" {
			writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			return
		}

		user, err := db.GetUserByUsername(r.Context(), creds.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			} else {
				logger.ErrorContext(r.Context(), "can't get user by username", "error", err)
				writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		// This includes bcrypt.ErrMismatchedHashAndPassword
		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
			writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			return
		}

		tokenString, err := issuer.GenerateJWT(strconv.FormatInt(user.ID, 10), user.Username)
		if err != nil {
			logger.ErrorContext(r.Context(), "can't generate token", "error", err)
			writeJSONError(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: tokenString, Username: user.Username})
	}
}
