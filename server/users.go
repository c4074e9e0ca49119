package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/services/users"
	"github.com/financeai/backoffice/shared/middleware"
	"github.com/financeai/backoffice/shared/utils"
)

func handleListUsers(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := svc.FindAll(c.Request.Context())
		if err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "usuários", profiles)
	}
}

func handleGetUser(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		profile, err := svc.FindOne(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				utils.NotFoundResponse(c, err.Error())
				return
			}
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "usuário", profile)
	}
}

func handleCreateUser(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input users.CreateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "corpo da requisição inválido")
			return
		}

		user, err := svc.Create(c.Request.Context(), input)
		if err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.CreatedResponse(c, "usuário criado", user)
	}
}

func handleUpdateUser(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		var input users.UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "corpo da requisição inválido")
			return
		}

		profile, err := svc.Update(c.Request.Context(), id, input)
		if err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "usuário atualizado", profile)
	}
}

func handleListNotifications(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			utils.UnauthorizedResponse(c, "usuário não autenticado")
			return
		}
		utils.OKResponse(c, "notificações", svc.FindAll(c.Request.Context(), userID))
	}
}

func handleMarkNotificationRead(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}
		if err := svc.MarkAsRead(c.Request.Context(), id); err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "notificação marcada como lida", nil)
	}
}

func handleDeleteNotification(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}
