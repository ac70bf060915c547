package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displaySessionInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                      - Health check")
	fmt.Println("  GET    /stats                       - Server statistics")
	fmt.Println("  POST   /auth/signup                 - Create account")
	fmt.Println("  POST   /auth/login                  - Sign in")
	fmt.Println("  POST   /auth/logout                 - Sign out")
	fmt.Println("  GET    /auth/me                     - Current account")
	fmt.Println("  GET    /ui/state                    - Shell state")
	fmt.Println("  POST   /ui/tabs/{tab}               - Switch tab")
	fmt.Println("  POST   /ui/modals/{modal}/open      - Open modal")
	fmt.Println("  POST   /ui/modals/{modal}/close     - Close modal")
	fmt.Println("  POST   /widgets/{widget}/file       - Upload via picker")
	fmt.Println("  POST   /widgets/{widget}/drop       - Upload via drop")
	fmt.Println("  GET    /widgets/{widget}/selection  - Current selection")
	fmt.Println("  DELETE /widgets/{widget}/selection  - Clear selection")
	fmt.Println("  GET    /previews/{token}            - File preview")
	fmt.Println("  POST   /analyze                     - Resume vs job analysis")
	fmt.Println("  POST   /ats/check                   - Local ATS check")
}

// displaySessionInfo shows session cookie configuration
func (s *Server) displaySessionInfo() {
	fmt.Printf("Session cookie: %s (secure=%t)\n", s.CookieName, s.CookieSecure)
	if len(s.cookieKey) > 0 {
		fmt.Println("Session signing: ENABLED")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.BySession {
			fmt.Println("  - Per session rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
