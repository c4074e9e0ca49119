package main

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/financeai/backoffice/services/person"
	"github.com/financeai/backoffice/shared/utils"
)

// handleLookupCNPJ proxies the registry lookup. Validation happens before
// any upstream traffic, so a malformed document costs nothing remotely.
func handleLookupCNPJ(svc *person.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := svc.Lookup(c.Request.Context(), c.Param("cnpj"))
		if err != nil {
			switch {
			case errors.Is(err, person.ErrCNPJInvalid):
				utils.BadRequestResponse(c, err.Error())
			case errors.Is(err, person.ErrCNPJNotFound):
				utils.NotFoundResponse(c, err.Error())
			case errors.Is(err, person.ErrCNPJTimeout):
				utils.GatewayTimeoutResponse(c, err.Error())
			default:
				utils.InternalServerErrorResponse(c, err.Error())
			}
			return
		}
		utils.OKResponse(c, "empresa encontrada", company)
	}
}
