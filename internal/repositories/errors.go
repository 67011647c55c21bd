package repositories

import "errors"

var (
	// ErrPlayRecordNotFound 表示 (user_id, media_id) 尚无播放记录。
	ErrPlayRecordNotFound = errors.New("play record not found")
	// ErrPlayEventNotFound 表示记录下没有符合条件的事件。
	ErrPlayEventNotFound = errors.New("play event not found")
	// ErrLessonProgressNotFound 表示尚未汇总过该课时。
	ErrLessonProgressNotFound = errors.New("lesson progress not found")
	// ErrMediaNotFound 表示媒体目录中不存在该媒体。
	ErrMediaNotFound = errors.New("media not found")
	// ErrLessonNotFound 表示课时目录中不存在该课时。
	ErrLessonNotFound = errors.New("lesson not found")
)
