package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/config"
	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// User exported for testing purposes
type User struct {
	DB  databases.UserDatabase
	PDB databases.PushTokenDatabase
}

type createUserRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// UserCreateHandler creates a new user account
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" || req.Name == "" {
		config.ErrorStatus("name, email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing fields"))
		return
	}

	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleCitizen
	}
	switch role {
	case models.RoleCitizen, models.RoleStaff, models.RoleAdmin:
	default:
		config.ErrorStatus("unknown role", http.StatusBadRequest, w, fmt.Errorf("role %q", req.Role))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if existing, err := u.DB.FindOne(ctx, bson.M{"email": email}); err == nil && existing != nil {
		config.ErrorStatus("email already registered", http.StatusConflict, w, fmt.Errorf("email %s", email))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:             primitive.NewObjectID(),
		Name:           req.Name,
		Email:          email,
		Password:       string(hash),
		Role:           role,
		OrganizationID: req.OrganizationID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

// UserHandler returns a user by ID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type pushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterPushTokenHandler stores or refreshes an Expo push token for a user
func (u User) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Token == "" {
		config.ErrorStatus("token is required", http.StatusBadRequest, w, fmt.Errorf("empty token"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())

	// Refresh the existing registration when the token is already known
	if existing, err := u.PDB.FindOne(ctx, bson.M{"token": req.Token}); err == nil && existing != nil {
		_, err := u.PDB.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{
			"$set": bson.M{"userId": userID, "platform": req.Platform, "updatedAt": now},
		})
		if err != nil {
			config.ErrorStatus("failed to refresh push token", http.StatusInternalServerError, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		return
	}

	token := models.PushToken{
		UserID:    userID,
		Token:     req.Token,
		Platform:  req.Platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := u.PDB.InsertOne(ctx, token); err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
