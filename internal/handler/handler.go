package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/akimenko/ledger-service/internal/config"
	"github.com/akimenko/ledger-service/internal/export"
	"github.com/akimenko/ledger-service/internal/models"
	"github.com/akimenko/ledger-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	svc *service.Service
	cfg *config.Config
	log *logrus.Logger
}

func NewHandler(svc *service.Service, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

// Router assembles all routes. authMW guards every route except /login.
func (h *Handler) Router(authMW mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/login", h.Login).Methods("POST")

	api := r.PathPrefix("/").Subrouter()
	api.Use(authMW)
	api.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts/number/{number}", h.GetAccountByNumber).Methods("GET")
	api.HandleFunc("/accounts/{id}", h.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}/transactions", h.ListAccountTransactions).Methods("GET")
	api.HandleFunc("/transfers", h.Transfer).Methods("POST")
	api.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/transactions/export", h.ExportTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the configured operator and issues a JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username != h.cfg.AdminUser ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   req.Username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.log.Errorf("Failed to sign token: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.log.Infof("Operator logged in: %s", req.Username)
	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

type createAccountRequest struct {
	AccountNumber string          `json:"account_number"`
	OwnerName     string          `json:"owner_name"`
	Balance       decimal.Decimal `json:"balance"`
}

// CreateAccount handles account creation.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req.AccountNumber, req.OwnerName, req.Balance)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccount handles account lookup by id.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetAccountByNumber handles account lookup by account number.
func (h *Handler) GetAccountByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetAccountByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListAccounts lists all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

type transferRequest struct {
	SourceAccountNumber string          `json:"source_account_number"`
	TargetAccountNumber string          `json:"target_account_number"`
	Amount              decimal.Decimal `json:"amount"`
}

type transferErrorResponse struct {
	Error       string              `json:"error"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// Transfer executes a fund transfer and returns the transaction record. On
// rejection the persisted FAILED record is included in the error response.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceAccountNumber == "" || req.TargetAccountNumber == "" {
		writeError(w, http.StatusBadRequest, "source and target account numbers are required")
		return
	}

	tx, err := h.svc.Transfer(r.Context(), req.SourceAccountNumber, req.TargetAccountNumber, req.Amount)
	if err != nil {
		writeJSON(w, statusForError(err), transferErrorResponse{Error: err.Error(), Transaction: tx})
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// GetTransaction handles transaction lookup by id.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	tx, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// ListTransactions lists the whole transaction journal.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// ListAccountTransactions lists the journal slice touching one account.
func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	txs, err := h.svc.ListTransactionsByAccount(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// ExportTransactions returns the journal as an XML statement.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	doc := export.Statement(txs)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := doc.WriteTo(w); err != nil {
		h.log.Errorf("Failed to write statement export: %v", err)
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrAuditWriteFailed):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrSameAccount),
		errors.Is(err, models.ErrInvalidAccountNumber):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateAccountNumber):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case models.IsStorageError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
