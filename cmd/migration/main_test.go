package main

import "testing"

func TestVersionArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    uint
		wantErr bool
	}{
		{name: "explicit", args: []string{" 3 "}, want: 3},
		{name: "missing", args: nil, wantErr: true},
		{name: "negative", args: []string{"-1"}, wantErr: true},
		{name: "not a number", args: []string{"latest"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := versionArg(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error: got=%v wantErr=%v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("unexpected version: got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestEmbeddedVersionsAreSequential(t *testing.T) {
	t.Parallel()

	versions, err := embeddedVersions()
	if err != nil {
		t.Fatalf("embedded versions: %v", err)
	}
	if len(versions) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for i, v := range versions {
		if v != uint(i+1) {
			t.Fatalf("versions got=%v want 1..%d without gaps", versions, len(versions))
		}
	}
}

func TestWithMigrationParams(t *testing.T) {
	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")

	got := withMigrationParams("postgres://u:p@localhost:5432/matchfeed?sslmode=disable")
	want := "postgres://u:p@localhost:5432/matchfeed?application_name=matchfeed-migration&disable_prepared_binary_result=yes&sslmode=disable"
	if got != want {
		t.Fatalf("unexpected url: got=%q want=%q", got, want)
	}

	if got := withMigrationParams("host=localhost dbname=matchfeed"); got != "host=localhost dbname=matchfeed" {
		t.Fatalf("key/value dsn should pass through, got=%q", got)
	}
}

func TestCommandsHaveUsage(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"up", "down", "status", "force", "goto"} {
		cmd, ok := commands[name]
		if !ok || cmd.run == nil || cmd.usage == "" {
			t.Fatalf("command %q missing or incomplete", name)
		}
	}
	if _, ok := commands["drop"]; ok {
		t.Fatalf("drop must not be exposed")
	}
}
