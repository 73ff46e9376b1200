package app

import (
	"bytes"
	"testing"
)

// TestRun_MigrateCommand_FailsWithoutDB はmigrateコマンドがDB接続を試みることを検証する。
// テスト環境ではDB接続が失敗するため、エラーが返ることを許容する。
func TestRun_MigrateCommand_FailsWithoutDB(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate"})
	if err == nil {
		// CI/ローカルにDBがある場合は成功し得る
		t.Log("Run(migrate) succeeded - DB is available in test environment")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	clearTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

// TestRun_HealthcheckCommand_FailsWithoutServer はhealthcheckコマンドが
// サーバー未起動時にエラーを返すことを検証する。
func TestRun_HealthcheckCommand_FailsWithoutServer(t *testing.T) {
	// 到達不能なポートを指定する
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"healthcheck"}); err == nil {
		t.Error("healthcheck should fail when no server is listening")
	}
}
