package controllers

import (
	"net/http"
	"strings"

	"github.com/danielbikeshop/backend/api/responses"
	catalogsvc "github.com/danielbikeshop/backend/internal/catalog"
	"github.com/danielbikeshop/backend/internal/erptoken"
	ordersvc "github.com/danielbikeshop/backend/internal/orders"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

const callbackSuccessHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Bling conectado</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>Bling conectado com sucesso</h1>
<p>A integração está ativa. Você já pode fechar esta janela.</p>
</body>
</html>`

const callbackErrorHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Erro na conexão</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>Não foi possível conectar ao Bling</h1>
<p>Tente novamente a partir do painel administrativo.</p>
</body>
</html>`

// BlingCallback receives the OAuth redirect from Bling and finishes the
// authorization-code exchange. It renders HTML because the operator lands
// here in a browser, not an API client.
func BlingCallback(tokens erptoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if reason := r.URL.Query().Get("error"); reason != "" {
			ctx := logg.WithField(r.Context(), "oauth_error", reason)
			logg.Warn(ctx, "bling authorization denied")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(callbackErrorHTML))
			return
		}

		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(callbackErrorHTML))
			return
		}

		if err := tokens.ExchangeCode(r.Context(), code); err != nil {
			logg.Error(r.Context(), "bling code exchange failed", err)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(callbackErrorHTML))
			return
		}

		logg.Info(r.Context(), "bling connected")
		_, _ = w.Write([]byte(callbackSuccessHTML))
	}
}

// BlingStatus reports the stored credential state to the back office.
func BlingStatus(tokens erptoken.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := tokens.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// CatalogSyncTrigger runs a catalog sync on demand from the back office.
func CatalogSyncTrigger(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Run(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// OrderErpSync retries the ERP push for one order.
func OrderErpSync(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SyncToERP(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.ErpLink == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "erp link missing after sync"))
			return
		}
		responses.WriteSuccess(w, ordersvc.NewErpLinkResponse(order.ErpLink))
	}
}
