package http

import (
	"time"

	"CareLink/internal/config"
	"CareLink/internal/initial"
	jwtMiddleware "CareLink/internal/middleware/jwt"
	"CareLink/internal/middleware/ratelimit"
	agentService "CareLink/internal/modules/agent/application/service"
	agentPersistence "CareLink/internal/modules/agent/infrastructure/persistence"
	agentHandler "CareLink/internal/modules/agent/interface/http"
	botService "CareLink/internal/modules/bot/application/service"
	"CareLink/internal/modules/bot/infrastructure/mq"
	"CareLink/internal/modules/bot/infrastructure/mq/kafka"
	botPersistence "CareLink/internal/modules/bot/infrastructure/persistence"
	botHandler "CareLink/internal/modules/bot/interface/http"
	chatService "CareLink/internal/modules/chat/application/service"
	chatPersistence "CareLink/internal/modules/chat/infrastructure/persistence"
	chatHandler "CareLink/internal/modules/chat/interface/http"
	"CareLink/pkg/email"
	"CareLink/pkg/ssl"
	"CareLink/pkg/ws"
	"CareLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	wsHub := ws.NewHub()

	convRepo := chatPersistence.NewConversationRepository(initial.GormDB)
	messageRepo := chatPersistence.NewMessageRepository(initial.GormDB)
	agentRepo := agentPersistence.NewAgentRepository(initial.GormDB)
	adminRepo := agentPersistence.NewAdminUserRepository(initial.GormDB)
	deptRepo := agentPersistence.NewDepartmentRepository(initial.GormDB)
	invRepo := agentPersistence.NewInvitationRepository(initial.GormDB)
	tokenRepo := agentPersistence.NewVerificationTokenRepository(initial.GormDB)
	knowledgeRepo := botPersistence.NewKnowledgeRepository(initial.GormDB)
	ruleRepo := botPersistence.NewRoutingRuleRepository(initial.GormDB)
	unansweredRepo := botPersistence.NewUnansweredQueryRepository(initial.GormDB)

	mailer := email.NewSMTPSender(conf.SmtpConfig.Host, conf.SmtpConfig.Port,
		conf.SmtpConfig.User, conf.SmtpConfig.Pass, conf.SmtpConfig.From)

	// kafka 可选,未配置时事件发布整体跳过
	var publisher mq.Publisher
	if len(conf.KafkaConfig.Brokers) > 0 {
		p, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Error("kafka init failed: " + err.Error())
		} else {
			publisher = p
		}
	}

	broadcastSvc := chatService.NewBroadcastService(wsHub, convRepo, agentRepo)
	escalationSvc := chatService.NewEscalationService(convRepo, broadcastSvc)
	knowledgeSvc, err := botService.NewKnowledgeService(knowledgeRepo)
	if err != nil {
		zlog.Fatal("knowledge load failed: " + err.Error())
	}
	routingSvc := botService.NewRoutingService(ruleRepo)
	botSvc := botService.NewBotService(knowledgeSvc, routingSvc, unansweredRepo, deptRepo, escalationSvc, publisher)
	agentSvc := agentService.NewAgentService(agentRepo, deptRepo, invRepo, tokenRepo, mailer)
	adminSvc := agentService.NewAdminService(adminRepo, agentRepo, deptRepo, invRepo, mailer, broadcastSvc)

	botH := botHandler.NewBotHandler(botSvc, knowledgeSvc)
	agentH := agentHandler.NewAgentHandler(agentSvc)
	adminH := agentHandler.NewAdminHandler(adminSvc)
	wsH := chatHandler.NewWsHandler(wsHub, botSvc, broadcastSvc, convRepo, messageRepo, agentRepo, deptRepo)
	uploadH := chatHandler.NewUploadHandler(wsHub, convRepo, messageRepo, agentRepo)

	loginLimit := ratelimit.Limit(10, time.Minute)

	GE.POST("/api/agent/register", loginLimit, agentH.Register)
	GE.POST("/api/agent/login", loginLimit, agentH.Login)
	GE.GET("/api/agent/verify", agentH.VerifyEmail)
	GE.POST("/api/agent/acceptInvite", loginLimit, agentH.AcceptInvite)
	GE.POST("/api/admin/login", loginLimit, adminH.Login)

	// 注册页要展示科室下拉,这条不需要登录
	GE.GET("/api/departments", adminH.Departments)

	GE.POST("/api/bot/message", botH.Message)
	GE.POST("/api/bot/escalate", botH.Escalate)
	GE.GET("/api/faqs/top", botH.TopFaqs)

	GE.GET("/wss", wsH.Connect)

	// 患者匿名,凭会话 id 上传,不走登录态
	GE.POST("/api/patient/upload/:chatId", uploadH.PatientUpload)

	if conf.UploadConfig.Dir != "" {
		publicURL := conf.UploadConfig.PublicURL
		if publicURL == "" {
			publicURL = "/uploads"
		}
		GE.Static(publicURL, conf.UploadConfig.Dir)
	}

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.POST("/api/upload/:chatId", uploadH.Upload)

	admin := GE.Group("/")
	admin.Use(jwtMiddleware.Auth(), jwtMiddleware.AdminOnly())
	admin.POST("/api/admin/register", adminH.Register)
	admin.GET("/api/admin/overview", adminH.Overview)
	admin.POST("/api/admin/approve", adminH.Approve)
	admin.POST("/api/admin/invitations", adminH.CreateInvitation)
	admin.GET("/api/admin/departments", adminH.Departments)
	admin.POST("/api/bot/reload", botH.Reload)
}
