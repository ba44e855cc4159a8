package g2

import (
	"fmt"
	"strings"
)

const (
	// EncoderName MQTT 编码器名称
	EncoderName = "g2"
	// TopicTemplate 数据主题格式
	TopicTemplate = "g2/{network}/{node}/data"
	// TopicWildcard 订阅所有网络和节点
	TopicWildcard = "g2/+/+/data"
)

// Topic 生成数据主题
func Topic(network, node string) string {
	return RenderTopic(TopicTemplate, network, node)
}

// RenderTopic 按模板替换 {network} 与 {node}
func RenderTopic(template, network, node string) string {
	return strings.NewReplacer("{network}", network, "{node}", node).Replace(template)
}

// ParseTopic 从 g2/{network}/{node}/data 中提取网络和节点
func ParseTopic(topic string) (network string, node string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != EncoderName || parts[3] != "data" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid topic format: %s", topic)
	}
	return parts[1], parts[2], nil
}
