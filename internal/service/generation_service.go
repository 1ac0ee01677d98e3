package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"modelstudio/internal/config"
	"modelstudio/internal/entity"
	"modelstudio/internal/entity/common"
	"modelstudio/internal/entity/db"
	"modelstudio/internal/entity/dto"
	"modelstudio/internal/model"
	"modelstudio/internal/provider"
	"modelstudio/internal/secret"
	"modelstudio/internal/storage"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const videoCompletionTimeout = 15 * time.Minute

// GenerationService 封装生成相关的业务逻辑：同步图片流程、异步视频流程
// 以及单槽位重新生成，并负责把结果写入历史记录。
type GenerationService struct {
	cfg     config.Config
	repo    model.Repository
	storage storage.Storage
	cipher  *secret.Cipher
	gemini  *provider.GeminiClient
	fal     *provider.FalClient

	// notifyFunc 用于通知生成完成事件（由调用方设置）
	notifyFunc func(recordID string, status string, errMsg string)
}

// NewGenerationService 创建生成服务实例
func NewGenerationService(cfg config.Config, repo model.Repository, store storage.Storage, cipher *secret.Cipher) *GenerationService {
	return &GenerationService{
		cfg:     cfg,
		repo:    repo,
		storage: store,
		cipher:  cipher,
		gemini:  provider.NewGeminiClient(""),
		fal:     provider.NewFalClient(""),
	}
}

// SetNotifyFunc 设置通知函数
func (s *GenerationService) SetNotifyFunc(fn func(recordID string, status string, errMsg string)) {
	s.notifyFunc = fn
}

// GenerateImage 同步生成图片：逐路调用 Gemini，落盘产出并写入一条
// completed（或 failed）历史记录。第 i 路流程使用第 i 个 Gemini 密钥槽位。
func (s *GenerationService) GenerateImage(ctx context.Context, user *db.User, req dto.GenerateImageRequest) (*dto.HistoryItem, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("repository not available")
	}

	settingsMode := req.SettingsMode
	if settingsMode != db.SettingsModeAdvanced {
		settingsMode = db.SettingsModeBasic
	}
	attributes := req.Attributes
	if attributes == nil {
		attributes = common.JSONMap{}
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = BuildPrompt(settingsMode, attributes)
	}

	slotCount := s.imageSlotCount(ctx)
	refs, err := s.referenceDataURLs(ctx, req.SourceImage)
	if err != nil {
		return nil, err
	}

	edited := make(common.SlotArray, slotCount)
	var notes []string
	for flow := 1; flow <= slotCount; flow++ {
		path, genErr := s.generateImageFlow(ctx, user, flow, prompt, refs)
		if genErr != nil {
			notes = append(notes, fmt.Sprintf("flow %d: %v", flow, genErr))
			continue
		}
		edited[flow-1] = &path
	}

	status := db.HistoryStatusCompleted
	errorMessage := strings.Join(notes, "; ")
	if edited.IsZero() {
		status = db.HistoryStatusFailed
	}

	item := &dto.HistoryItem{
		ID:             uuid.NewString(),
		Username:       user.Username,
		CreatedAt:      time.Now().UnixMilli(),
		Prompt:         prompt,
		SourceImage:    req.SourceImage,
		SettingsMode:   settingsMode,
		Attributes:     attributes,
		Status:         status,
		ErrorMessage:   errorMessage,
		EditedImages:   edited,
		OriginalImages: make(common.SlotArray, slotCount),
		Videos:         common.SlotArray{},
	}
	if err := s.repo.CreateHistoryRecord(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RegenerateSlot 重新生成单个图片槽位：旧产出挪入 original_images 同下标
// 槽位留作前后对比，新产出写回 edited_images，两个数组整组替换。
func (s *GenerationService) RegenerateSlot(ctx context.Context, user *db.User, recordID string, slotIdx int) (*dto.HistoryItem, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("repository not available")
	}
	if slotIdx < 0 {
		return nil, fmt.Errorf("invalid slot index: %d", slotIdx)
	}

	item, err := s.repo.GetHistoryRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if item.Username != user.Username && !user.IsAdmin() {
		return nil, gorm.ErrRecordNotFound
	}

	refs, err := s.referenceDataURLs(ctx, item.SourceImage)
	if err != nil {
		return nil, err
	}

	// 密钥槽位只有三个，更高的下标复用第三路的密钥。
	flow := slotIdx + 1
	if flow > 3 {
		flow = 3
	}
	path, err := s.generateImageFlow(ctx, user, flow, item.Prompt, refs)
	if err != nil {
		return nil, err
	}

	edited := extendSlots(item.EditedImages.Clone(), slotIdx+1)
	originals := extendSlots(item.OriginalImages.Clone(), slotIdx+1)
	originals[slotIdx] = edited[slotIdx]
	edited[slotIdx] = &path

	status := db.HistoryStatusCompleted
	updates := entity.HistoryUpdates{
		Status:         &status,
		EditedImages:   &edited,
		OriginalImages: &originals,
	}
	if err := s.repo.UpdateHistoryRecord(ctx, recordID, updates); err != nil {
		return nil, err
	}
	return s.repo.GetHistoryRecord(ctx, recordID)
}

// GenerateVideo 创建一条 processing 记录后台异步完成，返回记录 ID 供轮询。
func (s *GenerationService) GenerateVideo(ctx context.Context, user *db.User, req dto.GenerateVideoRequest) (string, error) {
	if s.repo == nil {
		return "", fmt.Errorf("repository not available")
	}

	attributes := req.Attributes
	if attributes == nil {
		attributes = common.JSONMap{}
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = BuildPrompt(db.SettingsModeBasic, attributes)
	}

	videoParams := req.VideoParams.Clone()
	if videoParams == nil {
		videoParams = common.JSONMap{}
	}
	videoParams[db.VideoParamStatus] = db.HistoryStatusProcessing

	item := &dto.HistoryItem{
		ID:             uuid.NewString(),
		Username:       user.Username,
		CreatedAt:      time.Now().UnixMilli(),
		Prompt:         prompt,
		SourceImage:    req.SourceImage,
		SettingsMode:   db.SettingsModeBasic,
		Attributes:     attributes,
		VideoParams:    videoParams,
		Status:         db.HistoryStatusProcessing,
		EditedImages:   common.SlotArray{},
		OriginalImages: common.SlotArray{},
		Videos:         make(common.SlotArray, 1),
	}
	if err := s.repo.CreateHistoryRecord(ctx, item); err != nil {
		return "", err
	}

	userCopy := *user
	go s.completeVideo(&userCopy, item.ID, prompt, req.SourceImage, req.VideoParams)

	return item.ID, nil
}

// completeVideo 在后台提交 fal.ai 任务并等待结果，再以局部更新收尾。
func (s *GenerationService) completeVideo(user *db.User, recordID, prompt, sourceImage string, params common.JSONMap) {
	ctx, cancel := context.WithTimeout(context.Background(), videoCompletionTimeout)
	defer cancel()

	apiKey, err := s.resolveFalKey(ctx, user)
	if err != nil {
		s.failVideo(ctx, recordID, fmt.Sprintf("resolve fal key: %v", err))
		return
	}

	input := map[string]any{
		"prompt":    prompt,
		"image_url": sourceImage,
	}
	for k, v := range params {
		switch k {
		case db.VideoParamStatus, db.VideoParamError, db.VideoParamSeed, db.VideoParamLocalVideoURL:
		default:
			input[k] = v
		}
	}

	webhookURL := ""
	if base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicServerURL), "/"); base != "" {
		webhookURL = base + "/api/webhooks/fal/" + recordID
	}

	requestID, err := s.fal.Submit(ctx, apiKey, input, webhookURL)
	if err != nil {
		s.failVideo(ctx, recordID, fmt.Sprintf("submit video job: %v", err))
		return
	}

	// 先把 request_id 并入参数文档，方便回调与排障对账。
	if err := s.repo.UpdateHistoryRecord(ctx, recordID, entity.HistoryUpdates{
		VideoParams: common.JSONMap{"request_id": requestID},
	}); err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Warn("failed to record fal request id")
	}

	result, err := s.fal.AwaitResult(ctx, apiKey, requestID)
	if err != nil {
		s.failVideo(ctx, recordID, err.Error())
		return
	}

	s.finishVideo(ctx, recordID, result.VideoURL, result.Seed)
}

// CompleteVideoFromWebhook 处理 fal.ai 的完成回调。与后台轮询路径共用
// 同一套局部更新，两边并发到达时按字段组各自收敛。
func (s *GenerationService) CompleteVideoFromWebhook(ctx context.Context, recordID string, payload dto.FalWebhookPayload) error {
	if s.repo == nil {
		return fmt.Errorf("repository not available")
	}

	if strings.ToUpper(payload.Status) != "OK" && !strings.EqualFold(payload.Status, "completed") {
		message := payload.Error
		if message == "" {
			message = "generation failed"
		}
		s.failVideo(ctx, recordID, message)
		return nil
	}

	videoURL := ""
	if video, ok := payload.Payload["video"].(map[string]any); ok {
		if url, ok := video["url"].(string); ok {
			videoURL = url
		}
	}
	if videoURL == "" {
		s.failVideo(ctx, recordID, "webhook payload contained no video url")
		return nil
	}

	s.finishVideo(ctx, recordID, videoURL, payload.Payload[db.VideoParamSeed])
	return nil
}

func (s *GenerationService) finishVideo(ctx context.Context, recordID, remoteURL string, seed any) {
	localPath, err := s.persistMedia(ctx, "videos", remoteURL)
	if err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Warn("failed to persist video locally")
		// 拉取失败时记录远端地址，播放仍然可用。
		localPath = remoteURL
	}

	status := db.HistoryStatusCompleted
	videos := common.SlotArray{&localPath}
	videoParams := common.JSONMap{
		db.VideoParamStatus:        db.HistoryStatusCompleted,
		db.VideoParamLocalVideoURL: localPath,
	}
	if seed != nil {
		videoParams[db.VideoParamSeed] = seed
	}

	err = s.repo.UpdateHistoryRecord(ctx, recordID, entity.HistoryUpdates{
		Status:      &status,
		VideoParams: videoParams,
		Videos:      &videos,
	})
	if err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to finalise video record")
		return
	}
	s.notify(recordID, db.HistoryStatusCompleted, "")
}

func (s *GenerationService) failVideo(ctx context.Context, recordID, message string) {
	status := db.HistoryStatusFailed
	err := s.repo.UpdateHistoryRecord(ctx, recordID, entity.HistoryUpdates{
		Status:       &status,
		ErrorMessage: &message,
		VideoParams: common.JSONMap{
			db.VideoParamStatus: db.HistoryStatusFailed,
			db.VideoParamError:  message,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("record_id", recordID).Error("failed to mark video record failed")
		return
	}
	s.notify(recordID, db.HistoryStatusFailed, message)
}

func (s *GenerationService) notify(recordID, status, errMsg string) {
	if s.notifyFunc != nil {
		s.notifyFunc(recordID, status, errMsg)
	}
}

// generateImageFlow 执行一路图片生成：取该路密钥、调用 Gemini、落盘产出。
func (s *GenerationService) generateImageFlow(ctx context.Context, user *db.User, flow int, prompt string, refs []string) (string, error) {
	apiKey, err := s.resolveGeminiKey(ctx, user, flow)
	if err != nil {
		return "", err
	}
	dataURL, err := s.gemini.GenerateImage(ctx, apiKey, prompt, refs)
	if err != nil {
		return "", err
	}
	return s.persistMedia(ctx, "images", dataURL)
}

// persistMedia 下载媒体载荷并写入存储，返回存储侧路径。
func (s *GenerationService) persistMedia(ctx context.Context, category, mediaURL string) (string, error) {
	data, ext, err := storage.Download(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	return s.storage.Save(ctx, data, storage.SaveOptions{
		Category:  category,
		Extension: ext,
	})
}

// referenceDataURLs 把输入图整理为 Gemini 需要的 data URL 形式。
func (s *GenerationService) referenceDataURLs(ctx context.Context, sourceImage string) ([]string, error) {
	trimmed := strings.TrimSpace(sourceImage)
	if trimmed == "" {
		return nil, fmt.Errorf("source image is required")
	}
	if strings.HasPrefix(trimmed, "data:") {
		return []string{trimmed}, nil
	}

	data, ext, err := storage.Download(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("load source image: %w", err)
	}
	mimeType := "image/" + ext
	if ext == "jpg" {
		mimeType = "image/jpeg"
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return []string{fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)}, nil
}

func (s *GenerationService) imageSlotCount(ctx context.Context) int {
	value, err := s.repo.GetSettingValue(ctx, db.SettingImageSlotCount)
	if err != nil {
		return 3
	}
	if n, convErr := strconv.Atoi(strings.TrimSpace(value)); convErr == nil && n > 0 && n <= 10 {
		return n
	}
	return 3
}

// extendSlots 把槽位数组补齐到至少 size 个槽位，新增槽位为空洞。
func extendSlots(slots common.SlotArray, size int) common.SlotArray {
	for len(slots) < size {
		slots = append(slots, nil)
	}
	return slots
}
