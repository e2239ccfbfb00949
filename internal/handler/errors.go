package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendingmachine/internal/infrastructure/lock"
	"vendingmachine/internal/ledger"
	"vendingmachine/internal/repository"
	"vendingmachine/internal/service"
	"vendingmachine/pkg/response"
)

type errorMapping struct {
	target error
	status int
	code   int
}

// errorTable is checked in order; the first match wins.
var errorTable = []errorMapping{
	{ledger.ErrUnauthenticated, http.StatusUnauthorized, response.CodeUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeInvalidCredentials},
	{ledger.ErrRoleViolation, http.StatusForbidden, response.CodeRoleViolation},
	{ledger.ErrInvalidDenomination, http.StatusBadRequest, response.CodeInvalidDenomination},
	{ledger.ErrInvalidQuantity, http.StatusBadRequest, response.CodeInvalidQuantity},
	{service.ErrInvalidArgument, http.StatusBadRequest, response.CodeParamError},
	{ledger.ErrInsufficientStock, http.StatusConflict, response.CodeInsufficientStock},
	{ledger.ErrInsufficientFunds, http.StatusForbidden, response.CodeInsufficientFunds},
	{ledger.ErrNotFound, http.StatusNotFound, response.CodeNotFound},
	{repository.ErrDuplicateRecord, http.StatusConflict, response.CodeDuplicateRequest},
	{repository.ErrOptimisticLock, http.StatusConflict, response.CodeConcurrentUpdate},
	{lock.ErrLockFailed, http.StatusServiceUnavailable, response.CodeConcurrentUpdate},
}

// classify returns the HTTP status and business code for err.
func classify(err error) (int, int) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.CodeServerError
}

// fail writes err with its classified status. Unclassified errors are
// logged and hidden behind a generic message.
func fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		zap.S().Errorf("[HTTP] %s %s: %+v", c.Request.Method, c.Request.URL.Path, err)
		response.ServerError(c)
		return
	}
	response.Error(c, status, code, err.Error())
}
