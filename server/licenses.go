package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/financeai/backoffice/services/licenses"
	"github.com/financeai/backoffice/shared/middleware"
	"github.com/financeai/backoffice/shared/utils"
)

func handleCreateLicense(svc *licenses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, ok := middleware.UserID(c)
		if !ok {
			utils.UnauthorizedResponse(c, "usuário não autenticado")
			return
		}

		var input licenses.CreateLicenseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "corpo da requisição inválido")
			return
		}

		license, err := svc.Create(c.Request.Context(), ownerID, input)
		if err != nil {
			if errors.Is(err, licenses.ErrInvalidDomain) {
				utils.BadRequestResponse(c, err.Error())
				return
			}
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.CreatedResponse(c, "licença criada", license)
	}
}

func handleListLicenses(svc *licenses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, ok := middleware.UserID(c)
		if !ok {
			utils.UnauthorizedResponse(c, "usuário não autenticado")
			return
		}
		utils.OKResponse(c, "licenças", svc.FindAll(c.Request.Context(), ownerID))
	}
}

func handleGetLicense(svc *licenses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		license, err := svc.FindOne(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, licenses.ErrLicenseNotFound) {
				utils.NotFoundResponse(c, err.Error())
				return
			}
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "licença", license)
	}
}

func handleUpdateLicense(svc *licenses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		var input licenses.UpdateLicenseInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "corpo da requisição inválido")
			return
		}

		license, err := svc.Update(c.Request.Context(), id, input)
		if err != nil {
			switch {
			case errors.Is(err, licenses.ErrLicenseNotFound):
				utils.NotFoundResponse(c, err.Error())
			case errors.Is(err, licenses.ErrInvalidDomain):
				utils.BadRequestResponse(c, err.Error())
			default:
				utils.InternalServerErrorResponse(c, err.Error())
			}
			return
		}
		utils.OKResponse(c, "licença atualizada", license)
	}
}

func handleDeleteLicense(svc *licenses.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, licenses.ErrLicenseNotFound) {
				utils.NotFoundResponse(c, err.Error())
				return
			}
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}
