package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/moodstreak/middleware"
	"github.com/cppla/moodstreak/utils"
)

func getUserID(ctx *gin.Context) (string, bool) {
	uid := middleware.UserID(ctx)
	return uid, uid != ""
}

func requireUser(ctx *gin.Context) (string, bool) {
	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	}
	return uid, ok
}
