package tui

import (
	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

type queueLoadedMsg struct {
	articles []queue.Article
	status   ops.Status
}

type queueErrMsg struct {
	err error
}
