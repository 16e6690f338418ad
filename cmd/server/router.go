package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/pollchat/internal/middleware"
)

func APIEndpoints(r *gin.Engine, s *Server) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", s.AuthH.Register)
		auth.POST("/login", s.AuthH.Login)
		auth.POST("/guest", s.AuthH.Guest)
	}

	authed := r.Group("/", middleware.AuthMiddleware(s.JWTManager, s.Blacklist, s.Log))
	{
		authed.POST("/auth/logout", s.AuthH.Logout)

		authed.GET("/messages", s.MessageH.GetMessages)
		authed.POST("/messages", middleware.RateLimit(s.Limiter), s.MessageH.SendMessage)
		authed.PUT("/messages/:id", s.MessageH.UpdateMessage)
		authed.DELETE("/messages/:id", s.MessageH.DeleteMessage)

		authed.GET("/typing", s.TypingH.GetTyping)
		authed.POST("/typing", s.TypingH.SetTyping)
	}
}
