package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fernandosegrr/Webhook-HUB/insights"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	encoderConfig.CallerKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordInsights(server string, workflowID string, source string, report insights.Report) {
	lc.logger.Info("insights",
		zap.String("server", server),
		zap.String("workflowId", workflowID),
		zap.String("source", source),
		zap.Int("days", report.Days),
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
		zap.Float64("failureRate", report.FailureRate),
		zap.Float64("avgRunTimeMs", report.AvgRunTimeMs))
}

func (lc *LogFileDataCollector) RecordAggregationFailure(server string, workflowID string, reason string) {
	lc.logger.Info("failure", zap.String("server", server), zap.String("workflowId", workflowID), zap.String("reason", reason))
}

func (lc *LogFileDataCollector) Sync() error {
	return lc.logger.Sync()
}
