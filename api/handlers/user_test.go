package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixora/fixora-api/api/handlers"
	mocksdb "github.com/fixora/fixora-api/databases/mocks"
	"github.com/fixora/fixora-api/models"
)

func TestUser_UserCreateHandlerSuccess(t *testing.T) {
	body := bytes.NewBufferString(`{"name": "Jordan", "email": "Jordan@Example.com", "password": "hunter22"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/create-user", body)
	require.NoError(t, err)

	udb := mocksdb.NewUserDatabase(t)
	udb.On("FindOne", mock.Anything, bson.M{"email": "jordan@example.com"}).Return(nil, errors.New("mongo: no documents in result"))

	var inserted models.User
	udb.On("InsertOne", mock.Anything, mock.Anything).
		Return(primitive.NewObjectID(), nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.User)
		})

	u := handlers.User{DB: udb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assert.Equal(t, "jordan@example.com", inserted.Email)
	assert.Equal(t, models.RoleCitizen, inserted.Role)
	assert.True(t, inserted.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Password), []byte("hunter22")))

	// the password hash never leaves the API
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	_, hasPassword := resp["password"]
	assert.False(t, hasPassword)
}

func TestUser_UserCreateHandlerDuplicateEmail(t *testing.T) {
	body := bytes.NewBufferString(`{"name": "Jordan", "email": "jordan@example.com", "password": "hunter22"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/create-user", body)
	require.NoError(t, err)

	udb := mocksdb.NewUserDatabase(t)
	udb.On("FindOne", mock.Anything, bson.M{"email": "jordan@example.com"}).Return(&models.User{
		ID:    primitive.NewObjectID(),
		Email: "jordan@example.com",
	}, nil)

	u := handlers.User{DB: udb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUser_UserCreateHandlerMissingFields(t *testing.T) {
	body := bytes.NewBufferString(`{"name": "Jordan"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/create-user", body)
	require.NoError(t, err)

	u := handlers.User{DB: mocksdb.NewUserDatabase(t)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_UserCreateHandlerUnknownRole(t *testing.T) {
	body := bytes.NewBufferString(`{"name": "Jordan", "email": "jordan@example.com", "password": "hunter22", "role": "superuser"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/create-user", body)
	require.NoError(t, err)

	u := handlers.User{DB: mocksdb.NewUserDatabase(t)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_UserHandlerSuccess(t *testing.T) {
	userID := primitive.NewObjectID()

	req, err := http.NewRequest("GET", "/api/v1/user/"+userID.Hex(), nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"user_id": userID.Hex()})
	req.Header.Set("Authorization", "Bearer abc123")

	udb := mocksdb.NewUserDatabase(t)
	udb.On("FindOne", mock.Anything, bson.M{"_id": userID}).Return(&models.User{ID: userID, Name: "Jordan"}, nil)

	u := handlers.User{DB: udb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got models.User
	_ = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.Equal(t, userID, got.ID)
	assert.Equal(t, "Jordan", got.Name)
}

func TestUser_UserHandlerNotFound(t *testing.T) {
	userID := primitive.NewObjectID()

	req, err := http.NewRequest("GET", "/api/v1/user/"+userID.Hex(), nil)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"user_id": userID.Hex()})
	req.Header.Set("Authorization", "Bearer abc123")

	udb := mocksdb.NewUserDatabase(t)
	udb.On("FindOne", mock.Anything, bson.M{"_id": userID}).Return(nil, errors.New("mongo: no documents in result"))

	u := handlers.User{DB: udb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUser_RegisterPushTokenHandlerNewToken(t *testing.T) {
	body := bytes.NewBufferString(`{"token": "ExponentPushToken[abc]", "platform": "ios"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/user-1/push-token", body)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
	req.Header.Set("Authorization", "Bearer abc123")

	pdb := mocksdb.NewPushTokenDatabase(t)
	pdb.On("FindOne", mock.Anything, bson.M{"token": "ExponentPushToken[abc]"}).Return(nil, errors.New("mongo: no documents in result"))

	var inserted models.PushToken
	pdb.On("InsertOne", mock.Anything, mock.Anything).
		Return(primitive.NewObjectID(), nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.PushToken)
		})

	u := handlers.User{PDB: pdb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterPushTokenHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "user-1", inserted.UserID)
	assert.Equal(t, "ios", inserted.Platform)
}

func TestUser_RegisterPushTokenHandlerRefreshesExisting(t *testing.T) {
	tokenID := primitive.NewObjectID()
	body := bytes.NewBufferString(`{"token": "ExponentPushToken[abc]", "platform": "android"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/user-2/push-token", body)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-2"})
	req.Header.Set("Authorization", "Bearer abc123")

	pdb := mocksdb.NewPushTokenDatabase(t)
	pdb.On("FindOne", mock.Anything, bson.M{"token": "ExponentPushToken[abc]"}).Return(&models.PushToken{
		ID:     tokenID,
		UserID: "user-1",
		Token:  "ExponentPushToken[abc]",
	}, nil)

	var update bson.M
	pdb.On("UpdateOne", mock.Anything, bson.M{"_id": tokenID}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			update = args.Get(2).(bson.M)
		})

	u := handlers.User{PDB: pdb}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterPushTokenHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	set := update["$set"].(bson.M)
	assert.Equal(t, "user-2", set["userId"])
	assert.Equal(t, "android", set["platform"])
}

func TestUser_RegisterPushTokenHandlerMissingToken(t *testing.T) {
	body := bytes.NewBufferString(`{"platform": "ios"}`)

	req, err := http.NewRequest("POST", "/api/v1/user/user-1/push-token", body)
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})
	req.Header.Set("Authorization", "Bearer abc123")

	u := handlers.User{PDB: mocksdb.NewPushTokenDatabase(t)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterPushTokenHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
