package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill-backend/usecases"
)

type Configuration struct {
	Env                 string
	AppName             string
	Port                string
	RequestLoggingLevel string
}

type API struct {
	config   Configuration
	router   *gin.Engine
	usecases usecases.Usecases
}

func New(
	config Configuration,
	router *gin.Engine,
	usecases usecases.Usecases,
) *API {
	api := &API{
		config:   config,
		router:   router,
		usecases: usecases,
	}
	api.routes()
	return api
}

func (api *API) Server() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", api.config.Port),
		Handler:           api.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
