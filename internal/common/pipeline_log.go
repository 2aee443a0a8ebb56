// Package common holds small cross-cutting helpers shared by several
// service packages, mirroring the teacher's internal/common grab-bag used
// from chat_pipline.
package common

import (
	"context"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
)

// PipelineInfo/Warn/Error log one pipeline-stage event with a consistent
// field shape (stage, action, ...extra) so log aggregation can group by
// stage across C8-C13 regardless of which package emitted the line.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.Infof(logger.WithFields(ctx, merge(stage, action, fields)), "%s.%s", stage, action)
}

func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.Warnf(logger.WithFields(ctx, merge(stage, action, fields)), "%s.%s", stage, action)
}

func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.Errorf(logger.WithFields(ctx, merge(stage, action, fields)), "%s.%s", stage, action)
}

func merge(stage, action string, fields map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"stage": stage, "action": action}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
