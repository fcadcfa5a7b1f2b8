package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/openbnet/presence/internal/api/apierr"
	"github.com/openbnet/presence/internal/api/response"
	"github.com/openbnet/presence/internal/factory"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/testutil"
)

type APISuite struct {
	suite.Suite
	app    *factory.TestApp
	router http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.router = NewRouter(RouterConfig{
		Logger:      testutil.NopLogger(),
		Registry:    s.app.Registry,
		Presence:    s.app.Presence,
		Coordinator: s.app.Online,
	})
}

func (s *APISuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func (s *APISuite) decode(recorder *httptest.ResponseRecorder, target any) {
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), target))
}

func (s *APISuite) errorCode(recorder *httptest.ResponseRecorder) string {
	var errResp apierr.ErrorResponse
	s.decode(recorder, &errResp)
	return errResp.Error.Code
}

func (s *APISuite) createAccount(tag string) response.Account {
	recorder := s.do(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":      "a@b.com",
		"password":   "password1",
		"battle_tag": tag,
	})
	s.Require().Equal(http.StatusCreated, recorder.Code)

	var account response.Account
	s.decode(recorder, &account)
	return account
}

func (s *APISuite) createGameAccount(accountID uint64) response.GameAccount {
	recorder := s.do(http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/gameaccounts", accountID), nil)
	s.Require().Equal(http.StatusCreated, recorder.Code)

	var gameAccount response.GameAccount
	s.decode(recorder, &gameAccount)
	return gameAccount
}

// Health

func (s *APISuite) TestHealth() {
	recorder := s.do(http.MethodGet, "/api/v1/health", nil)
	s.Equal(http.StatusOK, recorder.Code)
	s.JSONEq(`{"status":"ok"}`, recorder.Body.String())
}

// Accounts

func (s *APISuite) TestCreateAccount() {
	account := s.createAccount("Hero#1234")

	s.Equal("Hero#1234", account.BattleTag)
	s.Equal("a@b.com", account.Email)
	s.Equal("user", account.UserLevel)
	s.NotZero(account.ID)
	s.Equal(account.ID, account.EntityID.Low)
}

func (s *APISuite) TestCreateAccountMalformedTag() {
	recorder := s.do(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":      "a@b.com",
		"password":   "password1",
		"battle_tag": "no-separator",
	})
	s.Equal(http.StatusBadRequest, recorder.Code)
	s.Equal(apierr.CodeMalformedTag, s.errorCode(recorder))
}

func (s *APISuite) TestCreateAccountDuplicateTag() {
	s.createAccount("Hero#1234")

	recorder := s.do(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":      "c@d.com",
		"password":   "password1",
		"battle_tag": "Hero#1234",
	})
	s.Equal(http.StatusConflict, recorder.Code)
	s.Equal(apierr.CodeTagTaken, s.errorCode(recorder))
}

func (s *APISuite) TestCreateAccountMissingFields() {
	recorder := s.do(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email": "a@b.com",
	})
	s.Equal(http.StatusBadRequest, recorder.Code)
	s.Equal(apierr.CodeInvalidRequest, s.errorCode(recorder))
}

func (s *APISuite) TestGetAccountByID() {
	created := s.createAccount("Hero#1234")

	recorder := s.do(http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", created.ID), nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var account response.Account
	s.decode(recorder, &account)
	s.Equal(created, account)
}

func (s *APISuite) TestGetAccountByTag() {
	created := s.createAccount("Hero#1234")

	recorder := s.do(http.MethodGet, "/api/v1/accounts?tag="+url.QueryEscape("Hero#1234"), nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var account response.Account
	s.decode(recorder, &account)
	s.Equal(created.ID, account.ID)
}

func (s *APISuite) TestGetUnknownAccount() {
	recorder := s.do(http.MethodGet, "/api/v1/accounts/999", nil)
	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(apierr.CodeAccountNotFound, s.errorCode(recorder))
}

func (s *APISuite) TestVerifyPassword() {
	account := s.createAccount("Hero#1234")

	recorder := s.do(http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/verify-password", account.ID),
		map[string]string{"password": "password1"})
	s.Require().Equal(http.StatusOK, recorder.Code)
	var result response.VerifyPasswordResponse
	s.decode(recorder, &result)
	s.True(result.Valid)

	recorder = s.do(http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/verify-password", account.ID),
		map[string]string{"password": "wrong-pass"})
	s.Require().Equal(http.StatusOK, recorder.Code)
	s.decode(recorder, &result)
	s.False(result.Valid)
}

func (s *APISuite) TestSetUserLevel() {
	account := s.createAccount("Hero#1234")

	recorder := s.do(http.MethodPatch, fmt.Sprintf("/api/v1/accounts/%d/level", account.ID),
		map[string]string{"user_level": "gm"})
	s.Require().Equal(http.StatusOK, recorder.Code)

	var updated response.Account
	s.decode(recorder, &updated)
	s.Equal("gm", updated.UserLevel)
}

// Game accounts

func (s *APISuite) TestCreateGameAccount() {
	account := s.createAccount("Hero#1234")

	gameAccount := s.createGameAccount(account.ID)

	s.Equal(account.ID, gameAccount.ID)
	s.Equal(account.ID, gameAccount.OwnerID)
	s.Equal(account.EntityID.Low, gameAccount.EntityID.Low)
	s.NotEqual(account.EntityID.High, gameAccount.EntityID.High)
	s.Equal("D3", gameAccount.Program)
}

func (s *APISuite) TestCreateGameAccountDuplicate() {
	account := s.createAccount("Hero#1234")
	s.createGameAccount(account.ID)

	recorder := s.do(http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/gameaccounts", account.ID), nil)
	s.Equal(http.StatusConflict, recorder.Code)
	s.Equal(apierr.CodeGameAccountExists, s.errorCode(recorder))
}

func (s *APISuite) TestListGameAccounts() {
	account := s.createAccount("Hero#1234")
	gameAccount := s.createGameAccount(account.ID)

	recorder := s.do(http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d/gameaccounts", account.ID), nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var list []response.GameAccount
	s.decode(recorder, &list)
	s.Require().Len(list, 1)
	s.Equal(gameAccount.ID, list[0].ID)
}

func (s *APISuite) TestDeleteGameAccount() {
	account := s.createAccount("Hero#1234")
	gameAccount := s.createGameAccount(account.ID)

	recorder := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/gameaccounts/%d", gameAccount.ID), nil)
	s.Equal(http.StatusNoContent, recorder.Code)

	recorder = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/gameaccounts/%d", gameAccount.ID), nil)
	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(apierr.CodeGameAccountNotFound, s.errorCode(recorder))
}

// Sessions and presence

func (s *APISuite) TestSessionLifecycle() {
	account := s.createAccount("Hero#1234")
	gameAccount := s.createGameAccount(account.ID)

	recorder := s.do(http.MethodPost, "/api/v1/sessions",
		map[string]uint64{"game_account_id": gameAccount.ID})
	s.Require().Equal(http.StatusCreated, recorder.Code)
	s.True(s.app.Online.IsOnline(model.GameAccountID(gameAccount.ID)))

	recorder = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%d", gameAccount.ID), nil)
	s.Equal(http.StatusNoContent, recorder.Code)
	s.False(s.app.Online.IsOnline(model.GameAccountID(gameAccount.ID)))
}

func (s *APISuite) TestAttachSessionUnknownGameAccount() {
	recorder := s.do(http.MethodPost, "/api/v1/sessions",
		map[string]uint64{"game_account_id": 999})
	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(apierr.CodeGameAccountNotFound, s.errorCode(recorder))
}

func (s *APISuite) TestQueryPresenceField() {
	account := s.createAccount("Hero#1234")
	gameAccount := s.createGameAccount(account.ID)
	s.do(http.MethodPost, "/api/v1/sessions", map[string]uint64{"game_account_id": gameAccount.ID})

	path := fmt.Sprintf("/api/v1/presence/%d/%d/field?program=BNet&group=1&field=2",
		account.EntityID.High, account.EntityID.Low)
	recorder := s.do(http.MethodGet, path, nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var field response.FieldValue
	s.decode(recorder, &field)
	s.Require().True(field.Present)
	s.Equal("bool", field.Value.Type)
	s.JSONEq("true", string(field.Value.Value))
}

func (s *APISuite) TestQueryUnknownFieldIsAbsent() {
	account := s.createAccount("Hero#1234")

	path := fmt.Sprintf("/api/v1/presence/%d/%d/field?program=D3&group=9&field=9",
		account.EntityID.High, account.EntityID.Low)
	recorder := s.do(http.MethodGet, path, nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var field response.FieldValue
	s.decode(recorder, &field)
	s.False(field.Present)
	s.Nil(field.Value)
}

func (s *APISuite) TestApplyPresenceField() {
	account := s.createAccount("Hero#1234")
	gameAccount := s.createGameAccount(account.ID)

	path := fmt.Sprintf("/api/v1/presence/%d/%d/field",
		gameAccount.EntityID.High, gameAccount.EntityID.Low)
	recorder := s.do(http.MethodPost, path, map[string]any{
		"kind":    "set",
		"program": "BNet",
		"group":   2,
		"field":   3,
		"value":   map[string]any{"type": "int", "value": 2},
	})
	s.Require().Equal(http.StatusNoContent, recorder.Code)

	ga, ok := s.app.Registry.GameAccountByID(model.GameAccountID(gameAccount.ID))
	s.Require().True(ok)
	s.Equal(model.AwayStatusAway, ga.AwayStatus)
}

func (s *APISuite) TestSnapshot() {
	account := s.createAccount("Hero#1234")
	s.createGameAccount(account.ID)

	path := fmt.Sprintf("/api/v1/presence/%d/%d/snapshot",
		account.EntityID.High, account.EntityID.Low)
	recorder := s.do(http.MethodGet, path, nil)
	s.Require().Equal(http.StatusOK, recorder.Code)

	var snapshot response.Snapshot
	s.decode(recorder, &snapshot)
	s.Equal(account.EntityID, snapshot.EntityID)
	s.NotEmpty(snapshot.Operations)
	for _, op := range snapshot.Operations {
		s.Equal("SET", op.Kind)
	}
}

func (s *APISuite) TestSnapshotUnknownEntity() {
	recorder := s.do(http.MethodGet, "/api/v1/presence/0/999/snapshot", nil)
	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(apierr.CodeUnknownEntity, s.errorCode(recorder))
}
