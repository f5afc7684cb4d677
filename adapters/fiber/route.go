package fiber

// RegisterRoutes mounts every endpoint under the base path
func (s *Server) RegisterRoutes() {
	api := s.app.Group(s.basePath)

	// Public routes
	api.Get("/health", s.health)
	api.Post("/auth/login", s.login)
	api.Post("/auth/signup", s.signup)

	// Protected routes
	api.Post("/auth/logout", s.requireAuth, s.logout)
	api.Get("/auth/me", s.requireAuth, s.me)
	api.Get("/channel/overview", s.requireAuth, s.channelOverview)
	api.Get("/keywords", s.requireAuth, s.keywords)
	api.Get("/competitors", s.requireAuth, s.competitors)
	api.Get("/chat/messages", s.requireAuth, s.chatHistory)
	api.Post("/chat/messages", s.requireAuth, s.sendChatMessage)
	api.Get("/videos/:id/optimization", s.requireAuth, s.videoOptimization)
}
