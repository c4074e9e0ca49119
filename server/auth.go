package main

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/financeai/backoffice/auth"
	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/tenants"
	"github.com/financeai/backoffice/shared/utils"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email    string                 `json:"email" binding:"required,email"`
	Password string                 `json:"password" binding:"required,min=8"`
	Data     map[string]interface{} `json:"data"`
}

type changePasswordRequest struct {
	PreviousPassword string `json:"previous_password" binding:"required"`
	NewPassword      string `json:"new_password" binding:"required,min=8"`
}

func handleSignIn(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "credenciais inválidas")
			return
		}

		resp, err := provider.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			utils.UnauthorizedResponse(c, "e-mail ou senha incorretos")
			return
		}
		utils.OKResponse(c, "autenticado", resp)
	}
}

func handleSignUp(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "dados de cadastro inválidos")
			return
		}

		resp, err := provider.SignUp(c.Request.Context(), req.Email, req.Password, req.Data)
		if err != nil {
			utils.InternalServerErrorResponse(c, "não foi possível criar a conta")
			return
		}
		utils.CreatedResponse(c, "conta criada", resp)
	}
}

func handleSignOut(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "sessão ausente")
			return
		}
		if err := provider.SignOut(c.Request.Context(), token); err != nil {
			utils.InternalServerErrorResponse(c, "não foi possível encerrar a sessão")
			return
		}
		utils.OKResponse(c, "sessão encerrada", nil)
	}
}

func handleResetPassword(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "e-mail inválido")
			return
		}
		if err := provider.ResetPassword(c.Request.Context(), req.Email); err != nil {
			utils.InternalServerErrorResponse(c, "não foi possível iniciar a recuperação de senha")
			return
		}
		utils.OKResponse(c, "recuperação de senha iniciada", nil)
	}
}

func handleChangePassword(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "sessão ausente")
			return
		}

		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "dados inválidos")
			return
		}

		if err := provider.UpdatePassword(c.Request.Context(), token, req.PreviousPassword, req.NewPassword); err != nil {
			utils.InternalServerErrorResponse(c, "não foi possível alterar a senha")
			return
		}
		utils.OKResponse(c, "senha alterada", nil)
	}
}

func handleGetMe(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "sessão ausente")
			return
		}

		user, err := provider.GetUser(c.Request.Context(), token)
		if err != nil {
			utils.InternalServerErrorResponse(c, "não foi possível obter o usuário")
			return
		}
		if user == nil {
			utils.UnauthorizedResponse(c, "sessão expirada")
			return
		}
		utils.OKResponse(c, "usuário", user)
	}
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func handleCreateFullTenant(svc *tenants.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input gateway.CreateFullTenantInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.BadRequestResponse(c, "corpo da requisição inválido")
			return
		}

		result, err := svc.CreateFull(c.Request.Context(), input)
		if err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.CreatedResponse(c, "tenant criado", result)
	}
}

func handleListTenants(svc *tenants.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.FindAll(c.Request.Context())
		if err != nil {
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "tenants", list)
	}
}

func handleGetTenant(svc *tenants.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "id inválido")
			return
		}

		t, err := svc.FindOne(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, tenants.ErrTenantNotFound) {
				utils.NotFoundResponse(c, err.Error())
				return
			}
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}
		utils.OKResponse(c, "tenant", t)
	}
}
