package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/sketch-server/http_utils"
)

// ListRooms returns the public rooms for the room browser.
func (s *Server) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, http_utils.NewDataResponse("rooms", s.wsManager.ListRooms()))
}

type checkRoomRequest struct {
	Name string `uri:"name" binding:"required,max=128"`
}

func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.NewValidationErrorResponse(err))
		return
	}

	exists, hasPassword := s.wsManager.LookupRoom(data.Name)

	if !exists {
		c.JSON(http.StatusNotFound, http_utils.NewBaseResponse(false, "room not found"))
		return
	}

	c.JSON(http.StatusOK, http_utils.NewDataResponse("room data", gin.H{
		"name":     data.Name,
		"password": hasPassword,
	}))
}
