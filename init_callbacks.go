package main

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/services"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

var presenceLog = mainLog.With().Str("subsystem", "presence").Logger()

// registerHubCallbacks persists presence. The hub lives in ws and must not
// import services, so the main package connects the two.
func registerHubCallbacks(hub *ws.Hub, userService services.UserService) {
	setPresence := func(userID string, status models.UserStatus) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := userService.SetPresence(ctx, userID, status); err != nil {
			presenceLog.Error().Err(err).Str("user_id", userID).Str("status", string(status)).Msg("failed to update presence")
			return
		}
		presenceLog.Debug().Str("user_id", userID).Str("status", string(status)).Msg("presence changed")
	}

	hub.OnUserFirstConnect(func(userID string) {
		setPresence(userID, models.UserStatusOnline)
	})
	hub.OnUserLastDisconnect(func(userID string) {
		setPresence(userID, models.UserStatusOffline)
	})
}
