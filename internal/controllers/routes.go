package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-services-learning/internal/controllers/dto"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// HTTP 操作名，供日志与 tracing 中间件使用。
const (
	OperationReportEvent       = "/learning.v1.Playback/ReportEvent"
	OperationGetPlayRecord     = "/learning.v1.Playback/GetPlayRecord"
	OperationGetLessonProgress = "/learning.v1.Progress/GetLessonProgress"
	OperationGetCourseProgress = "/learning.v1.Progress/GetCourseProgress"
	OperationGetLearningStats  = "/learning.v1.Progress/GetLearningStats"
)

// RegisterHTTPRoutes 将 Handler 挂载到 kratos HTTP Server。
func RegisterHTTPRoutes(srv *khttp.Server, playback *PlaybackHandler, progress *ProgressHandler) {
	r := srv.Route("/")
	if playback != nil {
		r.POST("/v1/playback/events", route(OperationReportEvent, bindBody[dto.ReportPlaybackEventRequest], playback.ReportEvent))
		r.GET("/v1/users/{userId}/media/{mediaId}/play-record", route(OperationGetPlayRecord, func(ctx khttp.Context, in *dto.PlayRecordRequest) error {
			in.UserID, in.MediaID = ctx.Vars().Get("userId"), ctx.Vars().Get("mediaId")
			return nil
		}, playback.GetPlayRecord))
	}
	if progress != nil {
		r.GET("/v1/users/{userId}/lessons/{lessonId}/progress", route(OperationGetLessonProgress, func(ctx khttp.Context, in *dto.LessonProgressRequest) error {
			in.UserID, in.LessonID = ctx.Vars().Get("userId"), ctx.Vars().Get("lessonId")
			return nil
		}, progress.GetLessonProgress))
		r.GET("/v1/users/{userId}/courses/{courseId}/progress", route(OperationGetCourseProgress, func(ctx khttp.Context, in *dto.CourseProgressRequest) error {
			in.UserID, in.CourseID = ctx.Vars().Get("userId"), ctx.Vars().Get("courseId")
			return nil
		}, progress.GetCourseProgress))
		r.GET("/v1/users/{userId}/learning/stats", route(OperationGetLearningStats, func(ctx khttp.Context, in *dto.LearningStatsRequest) error {
			in.UserID = ctx.Vars().Get("userId")
			return nil
		}, progress.GetLearningStats))
	}
}

func bindBody[Req any](ctx khttp.Context, in *Req) error {
	return ctx.Bind(in)
}

// route 按 kratos 生成代码的方式包装 Handler，使 server 中间件链作用于每个请求。
func route[Req, Resp any](operation string, bind func(khttp.Context, *Req) error, call func(context.Context, *Req) (*Resp, error)) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		if err := bind(ctx, &in); err != nil {
			return err
		}
		khttp.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
