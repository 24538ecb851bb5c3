// Сервер учета пожертвований: предложения, запросы, взносы и расписание самовывоза.
package main

import "donation_backend/internal/app"

func main() {
	app.Run()
}
