package game

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sketchroom/domain"
	"sketchroom/domain/packets"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	maxNicknameRunes = 24
	maxRoomIdLength  = 32
	maxJoinAttempts  = 3
	joinTimeout      = 10 * time.Second
	withdrawTimeout  = time.Minute
)

var joinErrorCodes = []error{
	domain.ErrRoomNotFound,
	domain.ErrRoomFull,
	domain.ErrRoomClosed,
	domain.ErrWrongPasscode,
	domain.ErrEmptyNickname,
	domain.ErrNicknameLong,
	domain.ErrInvalidRoomId,
	domain.ErrInvalidJoin,
	domain.ErrExpiredToken,
	domain.ErrInvalidTokenSignature,
	domain.ErrInvalidSigningAlg,
	domain.ErrCorruptedToken,
}

type GameHandler struct {
	lobby     Lobby
	invites   InviteManager
	publicURL string
	upgrader  websocket.Upgrader
}

func NewGameHandler(lobby Lobby, invites InviteManager, allowedOrigins []string, publicURL string) *GameHandler {
	return &GameHandler{
		lobby:     lobby,
		invites:   invites,
		publicURL: strings.TrimRight(publicURL, "/"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func ValidRoomId(id string) bool {
	if id == "" || len(id) > maxRoomIdLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func validateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", domain.ErrEmptyNickname
	}
	if utf8.RuneCountInString(nickname) > maxNicknameRunes {
		return "", domain.ErrNicknameLong
	}
	return nickname, nil
}

// JoinGameHandler upgrades the connection and expects a join packet as the
// first frame. The pumps take over once a room accepted the player.
func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	socket := NewGorillaWebSocketWrapper(conn)
	joinCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	h.admit(joinCtx, socket)
}

func (h *GameHandler) admit(ctx context.Context, socket WebsocketConnection) {
	data, err := socket.Read()
	if err != nil {
		socket.Close()
		return
	}

	req, err := decodeJoin(data)
	if err != nil {
		rejectJoin(socket, err)
		return
	}

	nickname, err := validateNickname(req.Nickname)
	if err != nil {
		rejectJoin(socket, err)
		return
	}

	if !ValidRoomId(req.RoomId) {
		rejectJoin(socket, domain.ErrInvalidRoomId)
		return
	}

	invited := false
	if req.Invite != "" {
		roomId, err := h.invites.Verify(req.Invite)
		if err != nil {
			rejectJoin(socket, err)
			return
		}
		if roomId != req.RoomId {
			rejectJoin(socket, domain.ErrCorruptedToken)
			return
		}
		invited = true
	}

	p := NewPlayer(nickname)

	for range maxJoinAttempts {
		jreq := newRoomJoinRequest(req.RoomId, req.Passcode, invited, p)
		jreq.ctx = ctx
		h.lobby.ForwardPlayerJoinRequestToRoom(ctx, jreq)

		select {
		case err = <-jreq.errChan:
		case <-ctx.Done():
			err = ctx.Err()
			go withdrawJoin(jreq, p)
		}

		if !errors.Is(err, domain.ErrRoomClosed) {
			break
		}
	}

	if err != nil {
		rejectJoin(socket, err)
		return
	}

	log.Debug().Str("room", req.RoomId).Str("player", p.Id()).Msg("player admitted")
	go p.WritePump(socket)
	go p.ReadPump(socket)
}

// withdrawJoin waits out a join the handler stopped waiting for and takes the
// player back out of the room if it was admitted anyway.
func withdrawJoin(jreq roomJoinRequest, p *player) {
	select {
	case err := <-jreq.errChan:
		if err == nil {
			log.Warn().Str("player", p.Id()).Msg("removing player admitted after the join timed out")
			p.room.RemoveMe(context.Background(), p)
		}
	case <-time.After(withdrawTimeout):
	}
}

func decodeJoin(data []byte) (packets.JoinRequest, error) {
	pkt, err := packets.DecodeClientPacket(data)
	if err != nil || pkt.Type != packets.TypeJoin {
		return packets.JoinRequest{}, domain.ErrInvalidJoin
	}
	req, err := packets.DecodeData[packets.JoinRequest](pkt)
	if err != nil {
		return packets.JoinRequest{}, domain.ErrInvalidJoin
	}
	return req, nil
}

var errUnknownJoin = errors.New("unknown-error")

func joinErrorCode(err error) error {
	for _, known := range joinErrorCodes {
		if errors.Is(err, known) {
			return known
		}
	}
	return errUnknownJoin
}

func rejectJoin(socket WebsocketConnection, err error) {
	code := joinErrorCode(err)
	if code == errUnknownJoin {
		log.Error().Err(err).Msg("join failed")
	}

	data, _ := packets.Marshal(packets.MakePacketJoinError(code))
	socket.Write(data)
	socket.Close()
}

type roomListing struct {
	Id         string `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Locked     bool   `json:"locked"`
	Phase      string `json:"phase"`
}

func (h *GameHandler) GetRoomsHandler(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	descs := h.lobby.GetRoomsDescriptions(reqCtx)
	rooms := make([]roomListing, 0, len(descs))
	for _, desc := range descs {
		rooms = append(rooms, roomListing{
			Id:         desc.id,
			Players:    desc.playersCount,
			MaxPlayers: desc.maxPlayers,
			Locked:     desc.locked,
			Phase:      desc.phase.String(),
		})
	}
	ctx.JSON(http.StatusOK, rooms)
}

type createInviteRequest struct {
	Passcode string `json:"passcode"`
}

// CreateInviteHandler mints an invite for a room. Anyone who knows the
// passcode can mint one, open rooms accept any passcode.
func (h *GameHandler) CreateInviteHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomid")
	if !ValidRoomId(roomId) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRoomId.Error()})
		return
	}

	var body createInviteRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	err := h.lobby.VerifyPasscode(reqCtx, roomId, body.Passcode)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrWrongPasscode):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Str("room", roomId).Msg("passcode check failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	token, err := h.invites.Generate(roomId, time.Now())
	if err != nil {
		log.Error().Err(err).Str("room", roomId).Msg("invite generation failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"invite": token, "url": h.inviteLink(roomId, token)})
}

// QRCodeHandler renders the join link of a room, with the invite when one is
// given, as a PNG.
func (h *GameHandler) QRCodeHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomid")
	if !ValidRoomId(roomId) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRoomId.Error()})
		return
	}

	invite := ctx.Query("invite")
	if invite != "" {
		inviteRoom, err := h.invites.Verify(invite)
		if err != nil || inviteRoom != roomId {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid-invite"})
			return
		}
	}

	png, err := qrcode.Encode(h.inviteLink(roomId, invite), qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("room", roomId).Msg("qr encoding failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

func (h *GameHandler) inviteLink(roomId, invite string) string {
	q := url.Values{}
	q.Set("room", roomId)
	if invite != "" {
		q.Set("invite", invite)
	}
	return h.publicURL + "/?" + q.Encode()
}
