package main

// Messages is the text the dashboard shows for one language
type Messages struct {
	StatusConnected    string
	StatusDisconnected string

	ConnectLabel    string
	DisconnectLabel string
	Connecting      string
	Disconnecting   string

	ConnectSuccess    string
	DisconnectSuccess string
	ConnectError      string // followed by the agent's message
	DisconnectError   string
	ConnectFailed     string
	DisconnectFailed  string

	Title string
}

var catalogs = map[string]Messages{
	"ru": {
		StatusConnected:    "RabbitMQ: Подключен",
		StatusDisconnected: "RabbitMQ: Не подключен",
		ConnectLabel:       "Подключиться к RabbitMQ",
		DisconnectLabel:    "Отключиться от RabbitMQ",
		Connecting:         "Подключение...",
		Disconnecting:      "Отключение...",
		ConnectSuccess:     "Успешное подключение к RabbitMQ",
		DisconnectSuccess:  "Успешное отключение от RabbitMQ",
		ConnectError:       "Ошибка подключения: ",
		DisconnectError:    "Ошибка отключения: ",
		ConnectFailed:      "Ошибка при подключении к RabbitMQ",
		DisconnectFailed:   "Ошибка при отключении от RabbitMQ",
		Title:              "Агент сбора логов",
	},
	"en": {
		StatusConnected:    "RabbitMQ: Connected",
		StatusDisconnected: "RabbitMQ: Not connected",
		ConnectLabel:       "Connect to RabbitMQ",
		DisconnectLabel:    "Disconnect from RabbitMQ",
		Connecting:         "Connecting...",
		Disconnecting:      "Disconnecting...",
		ConnectSuccess:     "Connected to RabbitMQ",
		DisconnectSuccess:  "Disconnected from RabbitMQ",
		ConnectError:       "Connection error: ",
		DisconnectError:    "Disconnection error: ",
		ConnectFailed:      "Failed to connect to RabbitMQ",
		DisconnectFailed:   "Failed to disconnect from RabbitMQ",
		Title:              "Log collection agent",
	},
}

// MessagesFor returns the catalog for lang, falling back to Russian
func MessagesFor(lang string) Messages {
	if m, ok := catalogs[lang]; ok {
		return m
	}
	return catalogs["ru"]
}
