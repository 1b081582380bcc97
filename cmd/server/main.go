// Command server runs the taskflow HTTP API.
package main

import (
	log "github.com/sirupsen/logrus"

	_ "taskflow/docs"
	"taskflow/internal/config"
	"taskflow/internal/server"
)

// @title           Taskflow API
// @version         1.0
// @description     Projects, members and tasks with a drag-and-drop kanban board.
// @description     Every response uses the {success, data, error, message} envelope;
// @description     list endpoints add pagination. Task order is per (project, status) column.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token returned by /login.

// @tag.name Users
// @tag.description Registration and login
// @tag.name Projects
// @tag.description Project CRUD, scoped to owners and members
// @tag.name Members
// @tag.description Project membership and roles
// @tag.name Tasks
// @tag.description Task CRUD and filtered listing
// @tag.name Kanban
// @tag.description Board view and the status/order write used by drag and drop

// @schemes http https
func main() {
	cfg := config.Load()
	server.ConfigureLogging(cfg.Log)
	log.WithFields(log.Fields{
		"port":        cfg.Server.Port,
		"gin_mode":    cfg.Server.GinMode,
		"db_host":     cfg.Database.Host,
		"board_cache": cfg.Redis.Addr != "" && cfg.Redis.BoardTTL > 0,
	}).Info("⚙️  Configuration loaded")

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
