package ego

import "github.com/sirupsen/logrus"

// log 本车规划模块的日志记录器
var log = logrus.WithField("module", "ego")
