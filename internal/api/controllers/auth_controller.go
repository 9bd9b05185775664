package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"peervote/internal/models/request_models"
	"peervote/internal/services"
	"peervote/pkg/utils"
)

type AuthController struct {
	authService services.AdminAuthServiceInterface
}

func NewAuthController(authService services.AdminAuthServiceInterface) *AuthController {
	return &AuthController{authService: authService}
}

// Login godoc
// @Summary Admin login
// @Description Exchanges admin credentials for a session JWT
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.AdminLoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/admin/login [post]
func (a *AuthController) Login(c *gin.Context) {
	var req request_models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Username and password required")
		return
	}

	session, err := a.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, session, "Login successful")
}
