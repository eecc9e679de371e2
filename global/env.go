package global

import (
	"github.com/caredraft/draft-sync-service/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT          string
	Name          string = "Draft Sync Service"
	WebClientName string = "Web"
	// Version 构建时注入，与 internal/app.Version 保持一致
	Version string = "dev"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
