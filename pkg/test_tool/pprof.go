package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"language_exchange_service/pkg/config"
	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
)

// PprofAddr pprof listen address, local only
const PprofAddr = "127.0.0.1:6060"

// StartPprof 非 production 環境啟動 pprof
func StartPprof() {
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", PprofAddr))
		if err := http.ListenAndServe(PprofAddr, nil); err != nil {
			logger.Log.Warn("pprof server failed", zap.Error(err))
		}
	}()
}
