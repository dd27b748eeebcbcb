package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/tempchat/modules/api"
	"github.com/example/tempchat/modules/registry"
	"github.com/example/tempchat/modules/session"
	"github.com/example/tempchat/modules/shop"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== TempChat - Ephemeral Chat Rooms ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	registryModule := registry.NewModule(roomInactivityTimeout())
	sessionModule := session.NewModule()
	shopModule := shop.NewModule(redisAddr())
	apiModule := api.NewModule()

	// Wire the session coordinator to the room registry and the protected
	// room configuration. These injections are manual because the
	// coordinator needs synchronous access on its mutation path, which the
	// ServiceContainer's request-reply services cannot provide.
	sessionModule.SetRegistry(registryModule.Registry())
	if code := os.Getenv("PROTECTED_ROOM_CODE"); code != "" {
		registryModule.Registry().SetReservedCode(code)
		sessionModule.Coordinator().SetProtectedRoom(code, os.Getenv("PROTECTED_ROOM_PASS"))
	}
	apiModule.SetSession(sessionModule.Coordinator(), sessionModule.Hub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - registry: Room lifecycle (ServiceProviderModule + EventEmitterModule)
	// - session:  Connection coordinator (EventEmitterModule)
	// - shop:     Permanent room purchases (ServiceProviderModule, Redis)
	// - api:      Driving adapter (Fiber HTTP/WebSocket server)
	app.Register(registryModule)
	app.Register(sessionModule)
	app.Register(shopModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// roomInactivityTimeout reads ROOM_INACTIVITY_TIMEOUT (Go duration syntax,
// e.g. "30m"). Zero falls back to the registry default.
func roomInactivityTimeout() time.Duration {
	raw := os.Getenv("ROOM_INACTIVITY_TIMEOUT")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Invalid ROOM_INACTIVITY_TIMEOUT %q, using default", raw)
		return 0
	}
	return d
}

func redisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return addr
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  POST   /api/create-room               - Create an ephemeral room")
	log.Println("  GET    /api/rooms/:code               - Get room details")
	log.Println("  GET    /api/shop/check/:roomCode      - Check permanent room availability")
	log.Println("  POST   /api/shop/buy-room             - Buy a permanent room code")
	log.Println("  POST   /api/shop/can-change-password  - Check password change access")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Events: join-room, send-message, typing, stop-typing")
	log.Println("")
	log.Println("Rooms are destroyed after 30 minutes of inactivity or when the")
	log.Println("last member leaves.")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
