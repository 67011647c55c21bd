package httpserver

import "github.com/google/wire"

// ProviderSet 暴露 HTTP Server 构造器。
var ProviderSet = wire.NewSet(NewHTTPServer)
