// @title           bondlink API
// @version         1.0
// @description     API социального realtime-ядра: чаты, сообщения, уведомления.
// @host            localhost:4000
// @BasePath        /api/v1

package main

import "bondlink_backend/internal/app"

func main() {
	app.Run()
}
