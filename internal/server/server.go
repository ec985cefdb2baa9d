package server

// Данный сервер просто объединяет специфичные HTTP сервера, отвечающие за обработку конкретных сущностей
type Server struct {
	SearchServer
	HistoryServer
}

func NewServer(
	searchServer SearchServer,
	historyServer HistoryServer,
) Server {
	return Server{
		SearchServer:  searchServer,
		HistoryServer: historyServer,
	}
}
