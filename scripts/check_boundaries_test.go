package main

import "testing"

func TestCheckImport(t *testing.T) {
	cases := []struct {
		name       string
		pkg        string
		importPath string
		wantBroken bool
	}{
		{"domain uses stdlib", automationService + "/domain/services", "time", false},
		{"domain uses gorm", automationService + "/domain/entities", "gorm.io/gorm", true},
		{"ports uses prometheus", automationService + "/ports", "github.com/prometheus/client_golang/prometheus", true},
		{"ports uses shared outbox", automationService + "/ports", modulePath + "/internal/shared/outbox", false},
		{"application uses errgroup", automationService + "/application/workers", "golang.org/x/sync/errgroup", false},
		{"application uses memory adapter", automationService + "/application/workers", automationService + "/adapters/memory", true},
		{"application uses platform", automationService + "/application/workers", modulePath + "/internal/platform/messaging", true},
		{"fcm adapter uses firebase", automationService + "/adapters/fcm", "firebase.google.com/go/v4/messaging", false},
		{"postgres adapter uses firebase", automationService + "/adapters/postgres", "firebase.google.com/go/v4", true},
		{"db platform uses gorm", modulePath + "/internal/platform/db", "gorm.io/driver/postgres", false},
		{"bootstrap wires adapters", modulePath + "/internal/app/bootstrap", automationService + "/adapters/postgres", false},
		{"module constructor wires adapters", automationService, automationService + "/adapters/memory", false},
		{"httpserver reaches into adapters", modulePath + "/internal/platform/httpserver", automationService + "/adapters/memory", true},
		{"httpserver uses module and dtos", modulePath + "/internal/platform/httpserver", automationService + "/transport/http", false},
		{"httpserver uses workers", modulePath + "/internal/platform/httpserver", automationService + "/application/workers", true},
		{"worker cmd uses pflag", modulePath + "/cmd/worker", "github.com/spf13/pflag", false},
		{"scheduler uses pflag", modulePath + "/internal/platform/scheduler", "github.com/spf13/pflag", true},
		{"cross context", automationService + "/application", modulePath + "/contexts/event-ticketing/billing-service/ports", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			broken := checkImport(tc.pkg, tc.importPath)
			if (len(broken) > 0) != tc.wantBroken {
				t.Fatalf("checkImport(%q, %q) = %v, want broken=%v", tc.pkg, tc.importPath, broken, tc.wantBroken)
			}
		})
	}
}
